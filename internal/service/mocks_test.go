package service

import (
	"time"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(user *domain.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) FindByID(id string) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByUsername(username string) (*domain.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByIDs(ids []string) ([]domain.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// --- Mock MessageRepository ---

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(msg *domain.Message) error {
	return m.Called(msg).Error(0)
}

func (m *mockMessageRepo) FindPage(a, b string, before *time.Time, limit int) ([]domain.Message, error) {
	args := m.Called(a, b, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *mockMessageRepo) CountConversation(a, b string) (int64, error) {
	args := m.Called(a, b)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock CommentRepository ---

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Create(comment *domain.CommentRecord) error {
	return m.Called(comment).Error(0)
}

func (m *mockCommentRepo) FindByID(id string) (*domain.CommentRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommentRecord), args.Error(1)
}

func (m *mockCommentRepo) FindByPost(postID string) ([]domain.CommentRecord, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CommentRecord), args.Error(1)
}

func (m *mockCommentRepo) Delete(id string) error {
	return m.Called(id).Error(0)
}

// --- Mock LikeRepository ---

type mockLikeRepo struct {
	mock.Mock
}

func (m *mockLikeRepo) FindByPost(postID string) ([]domain.LikeRecord, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LikeRecord), args.Error(1)
}

func (m *mockLikeRepo) Toggle(postID, userID string) (bool, error) {
	args := m.Called(postID, userID)
	return args.Bool(0), args.Error(1)
}
