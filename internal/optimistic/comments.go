package optimistic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/rs/zerolog"
)

// CommentsAPI is the request/response side of comments
type CommentsAPI interface {
	Comments(ctx context.Context, postID string) (domain.CommentsResponse, error)
	CreateComment(ctx context.Context, postID, text string) (domain.CommentRecord, error)
	DeleteComment(ctx context.Context, commentID, postID string) error
}

// CommentState is the comment list and counter of one post
type CommentState struct {
	Comments []domain.CommentRecord
	Count    int
}

// Comments keeps per-post comment state. New comments are appended once the
// server returned the stored record, together with the counter.
type Comments struct {
	api      CommentsAPI
	notifier Notifier
	log      zerolog.Logger

	mu    sync.Mutex
	posts map[string]*CommentState
}

// NewComments creates a comment store
func NewComments(api CommentsAPI, notifier Notifier, log zerolog.Logger) *Comments {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Comments{
		api:      api,
		notifier: notifier,
		log:      log,
		posts:    make(map[string]*CommentState),
	}
}

// State returns the comments of a post
func (c *Comments) State(postID string) CommentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.posts[postID]
	if !ok {
		return CommentState{}
	}
	return CommentState{Comments: append([]domain.CommentRecord(nil), s.Comments...), Count: s.Count}
}

// Load fetches the comments of a post. On failure the shown state is kept.
func (c *Comments) Load(ctx context.Context, postID string) error {
	resp, err := c.api.Comments(ctx, postID)
	if err != nil {
		c.log.Warn().Err(err).Str("post_id", postID).Msg("comment load failed")
		c.notifier.Error("Could not load comments", background(func(ctx context.Context) { _ = c.Load(ctx, postID) }))
		return fmt.Errorf("load comments %s: %w", postID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts[postID] = &CommentState{
		Comments: append([]domain.CommentRecord(nil), resp.Comments...),
		Count:    resp.CommentCount,
	}
	return nil
}

// Create stores a comment and appends the returned record. A post that was
// never loaded has no known counter, so its state is left for the next Load.
func (c *Comments) Create(ctx context.Context, postID, text string) (domain.CommentRecord, error) {
	if strings.TrimSpace(text) == "" {
		return domain.CommentRecord{}, common.Validation("comment text is empty")
	}

	record, err := c.api.CreateComment(ctx, postID, text)
	if err != nil {
		c.log.Warn().Err(err).Str("post_id", postID).Msg("comment create failed")
		c.notifier.Error("Could not post comment", nil)
		return domain.CommentRecord{}, fmt.Errorf("create comment: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.posts[postID]
	if !ok {
		return record, nil
	}
	for _, existing := range s.Comments {
		if existing.ID == record.ID {
			return record, nil
		}
	}
	s.Comments = append(s.Comments, record)
	s.Count++
	return record, nil
}

// Delete removes a comment once the server confirmed it. The counter never goes below zero.
func (c *Comments) Delete(ctx context.Context, postID, commentID string) error {
	if err := c.api.DeleteComment(ctx, commentID, postID); err != nil {
		c.log.Warn().Err(err).Str("post_id", postID).Str("comment_id", commentID).Msg("comment delete failed")
		c.notifier.Error("Could not delete comment", nil)
		return fmt.Errorf("delete comment: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.posts[postID]
	if !ok {
		return nil
	}
	kept := s.Comments[:0:0]
	for _, existing := range s.Comments {
		if existing.ID != commentID {
			kept = append(kept, existing)
		}
	}
	s.Comments = kept
	if s.Count > 0 {
		s.Count--
	}
	return nil
}

// Forget drops all per-post state
func (c *Comments) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = make(map[string]*CommentState)
}
