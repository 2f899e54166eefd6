package service

import (
	"context"
	"strings"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/repository"
	"github.com/damoang/angple-realtime/pkg/cache"
)

// LikeService business logic for post likes
type LikeService interface {
	Likes(ctx context.Context, postID, userID string) (*domain.LikesResponse, error)
	Toggle(ctx context.Context, postID, userID string) (bool, error)
}

type likeService struct {
	likes repository.LikeRepository
	cache cache.Service
}

// NewLikeService creates a new LikeService. cache may be nil.
func NewLikeService(likes repository.LikeRepository, c cache.Service) LikeService {
	if c == nil {
		c = cache.NewService(nil)
	}
	return &likeService{likes: likes, cache: c}
}

func (s *likeService) Likes(ctx context.Context, postID, userID string) (*domain.LikesResponse, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, common.Validation("post id is required")
	}

	var records []domain.LikeRecord
	if err := s.cache.GetLikes(ctx, postID, &records); err != nil {
		records, err = s.likes.FindByPost(postID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetLikes(ctx, postID, records)
	}

	resp := &domain.LikesResponse{Likes: records}
	for _, r := range records {
		if r.UserID == userID {
			resp.LikedByLoggedInUser = true
			break
		}
	}
	return resp, nil
}

func (s *likeService) Toggle(ctx context.Context, postID, userID string) (bool, error) {
	if strings.TrimSpace(postID) == "" {
		return false, common.Validation("post id is required")
	}
	liked, err := s.likes.Toggle(postID, userID)
	if err != nil {
		return false, err
	}
	_ = s.cache.InvalidateLikes(ctx, postID)
	return liked, nil
}
