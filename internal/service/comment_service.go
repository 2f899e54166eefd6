package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/repository"
	"github.com/google/uuid"
)

const MaxCommentLength = 1000

// CommentService business logic for post comments
type CommentService interface {
	List(postID string) (*domain.CommentsResponse, error)
	Create(userID string, req *domain.CreateCommentRequest) (*domain.CommentRecord, error)
	// Delete removes one of the caller's own comments
	Delete(userID string, req *domain.DeleteCommentRequest) error
}

type commentService struct {
	comments repository.CommentRepository
	now      func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(comments repository.CommentRepository) CommentService {
	return &commentService{comments: comments, now: time.Now}
}

func (s *commentService) List(postID string) (*domain.CommentsResponse, error) {
	comments, err := s.comments.FindByPost(postID)
	if err != nil {
		return nil, err
	}
	return &domain.CommentsResponse{Comments: comments, CommentCount: len(comments)}, nil
}

func (s *commentService) Create(userID string, req *domain.CreateCommentRequest) (*domain.CommentRecord, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, common.Validation("comment text is empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, common.Validation(fmt.Sprintf("comment longer than %d characters", MaxCommentLength))
	}

	comment := &domain.CommentRecord{
		ID:        uuid.NewString(),
		PostID:    req.PostID,
		UserID:    userID,
		Text:      text,
		Timestamp: s.now().UTC(),
	}
	if err := s.comments.Create(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) Delete(userID string, req *domain.DeleteCommentRequest) error {
	comment, err := s.comments.FindByID(req.ID)
	if err != nil {
		return err
	}
	// someone else's comment is reported as missing
	if comment.PostID != req.PostID || comment.UserID != userID {
		return fmt.Errorf("comment %s: %w", req.ID, common.ErrNotFound)
	}
	return s.comments.Delete(comment.ID)
}
