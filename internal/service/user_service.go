package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/repository"
	"github.com/damoang/angple-realtime/pkg/cache"
	"github.com/damoang/angple-realtime/pkg/jwt"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{2,32}$`)

// UserService business logic for accounts and sessions
type UserService interface {
	// Login issues a session token, creating the account on first use
	Login(ctx context.Context, username string) (*domain.LoginResponse, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.Me, error)
}

type userService struct {
	users     repository.UserRepository
	relations repository.RelationRepository
	jwt       *jwt.Manager
	cache     cache.Service
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(users repository.UserRepository, relations repository.RelationRepository, jwtManager *jwt.Manager, c cache.Service) UserService {
	if c == nil {
		c = cache.NewService(nil)
	}
	return &userService{users: users, relations: relations, jwt: jwtManager, cache: c}
}

func (s *userService) Login(ctx context.Context, username string) (*domain.LoginResponse, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, common.Validation("username must be 2-32 letters, digits or _.-")
	}

	user, err := s.users.FindByUsername(username)
	if errors.Is(err, common.ErrNotFound) {
		user = &domain.User{ID: uuid.NewString(), Username: username, CreatedAt: time.Now().UTC()}
		err = s.users.Create(user)
		if errors.Is(err, common.ErrConflict) {
			// created concurrently
			user, err = s.users.FindByUsername(username)
		}
	}
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.LoginResponse{Token: token, User: *user}, nil
}

func (s *userService) Get(ctx context.Context, userID string) (*domain.User, error) {
	var cached domain.User
	if err := s.cache.GetUser(ctx, userID, &cached); err == nil {
		return &cached, nil
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetUser(ctx, userID, user)
	return user, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*domain.Me, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids, err := s.relations.FriendIDs(userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	return &domain.Me{User: *user, Friends: friends}, nil
}
