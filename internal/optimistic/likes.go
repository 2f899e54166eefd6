package optimistic

import (
	"context"
	"fmt"
	"sync"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/rs/zerolog"
)

// LikesAPI is the request/response side of likes
type LikesAPI interface {
	Likes(ctx context.Context, postID string) (domain.LikesResponse, error)
	ToggleLike(ctx context.Context, postID string) error
}

// LikeState is the like list of one post as shown to the user
type LikeState struct {
	Likes []domain.LikeRecord
	Liked bool
	Tag   Tag
}

func (s LikeState) clone() LikeState {
	s.Likes = append([]domain.LikeRecord(nil), s.Likes...)
	return s
}

type likePost struct {
	current   LikeState
	confirmed LikeState
	issued    uint64
	applied   uint64
	inflight  int
}

// Likes flips like state locally before the server answers, then replaces it
// with the server's list or reverts it to the last confirmed snapshot
type Likes struct {
	api      LikesAPI
	notifier Notifier
	selfID   string
	log      zerolog.Logger

	mu    sync.Mutex
	posts map[string]*likePost
}

// NewLikes creates a like reconciler for the logged-in user
func NewLikes(api LikesAPI, notifier Notifier, selfID string, log zerolog.Logger) *Likes {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Likes{
		api:      api,
		notifier: notifier,
		selfID:   selfID,
		log:      log,
		posts:    make(map[string]*likePost),
	}
}

// State returns the displayed like state of a post
func (l *Likes) State(postID string) LikeState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.postLocked(postID).current.clone()
}

func (l *Likes) postLocked(postID string) *likePost {
	p, ok := l.posts[postID]
	if !ok {
		empty := LikeState{Tag: TagConfirmed}
		p = &likePost{current: empty, confirmed: empty}
		l.posts[postID] = p
	}
	return p
}

// Load fetches the authoritative like list. On failure the shown state is kept
// and a retryable error is raised.
func (l *Likes) Load(ctx context.Context, postID string) error {
	l.mu.Lock()
	p := l.postLocked(postID)
	p.issued++
	seq := p.issued
	l.mu.Unlock()

	resp, err := l.api.Likes(ctx, postID)
	if err != nil {
		l.log.Warn().Err(err).Str("post_id", postID).Msg("like list load failed")
		l.notifier.Error("Could not load likes", background(func(ctx context.Context) { _ = l.Load(ctx, postID) }))
		return fmt.Errorf("load likes %s: %w", postID, err)
	}

	l.mu.Lock()
	l.applyLocked(p, seq, resp)
	l.mu.Unlock()
	return nil
}

// Toggle flips the like immediately, sends the toggle and reconciles with the
// server's list. A failed toggle restores the last confirmed state.
func (l *Likes) Toggle(ctx context.Context, postID string) (LikeState, error) {
	l.mu.Lock()
	p := l.postLocked(postID)
	if p.current.Liked {
		p.current.Liked = false
		if n := len(p.current.Likes); n > 0 {
			p.current.Likes = append([]domain.LikeRecord(nil), p.current.Likes[:n-1]...)
		}
	} else {
		p.current.Liked = true
		p.current.Likes = append(append([]domain.LikeRecord(nil), p.current.Likes...),
			domain.LikeRecord{PostID: postID, UserID: l.selfID})
	}
	p.current.Tag = TagOptimistic
	p.inflight++
	l.mu.Unlock()

	if err := l.api.ToggleLike(ctx, postID); err != nil {
		l.mu.Lock()
		p.inflight--
		if p.inflight == 0 {
			p.current = p.confirmed.clone()
		}
		state := p.current.clone()
		l.mu.Unlock()

		l.log.Warn().Err(err).Str("post_id", postID).Msg("like toggle failed, reverted")
		l.notifier.Error("Could not update like", nil)
		return state, fmt.Errorf("toggle like %s: %w", postID, err)
	}

	l.mu.Lock()
	p.inflight--
	p.issued++
	seq := p.issued
	l.mu.Unlock()

	resp, err := l.api.Likes(ctx, postID)
	if err != nil {
		// the toggle went through; keep the optimistic state until a refresh lands
		l.log.Warn().Err(err).Str("post_id", postID).Msg("like reconcile failed")
		l.notifier.Error("Could not refresh likes", background(func(ctx context.Context) { _ = l.Load(ctx, postID) }))
		return l.State(postID), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyLocked(p, seq, resp)
	return p.current.clone(), nil
}

// applyLocked installs a server response unless a later one was applied already.
// The displayed state is replaced only when no toggle is still in flight.
func (l *Likes) applyLocked(p *likePost, seq uint64, resp domain.LikesResponse) {
	if seq <= p.applied {
		return
	}
	p.applied = seq
	p.confirmed = LikeState{
		Likes: append([]domain.LikeRecord(nil), resp.Likes...),
		Liked: resp.LikedByLoggedInUser,
		Tag:   TagConfirmed,
	}
	if p.inflight == 0 {
		p.current = p.confirmed.clone()
	}
}

// Forget drops all per-post state
func (l *Likes) Forget() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posts = make(map[string]*likePost)
}
