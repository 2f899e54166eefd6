package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMessageService_HistoryClampsLimit(t *testing.T) {
	msgs := new(mockMessageRepo)
	users := new(mockUserRepo)
	svc := NewMessageService(msgs, users)

	users.On("FindByID", "bob").Return(&domain.User{ID: "bob"}, nil)
	msgs.On("FindPage", "me", "bob", (*time.Time)(nil), DefaultHistoryLimit).Return([]domain.Message{}, nil).Once()
	msgs.On("FindPage", "me", "bob", (*time.Time)(nil), MaxHistoryLimit).Return([]domain.Message{}, nil).Once()

	_, err := svc.History("me", "bob", 0, nil)
	require.NoError(t, err)
	_, err = svc.History("me", "bob", 5000, nil)
	require.NoError(t, err)

	msgs.AssertExpectations(t)
}

func TestMessageService_HistoryUnknownCounterpart(t *testing.T) {
	msgs := new(mockMessageRepo)
	users := new(mockUserRepo)
	svc := NewMessageService(msgs, users)

	users.On("FindByID", "ghost").Return(nil, common.ErrNotFound)

	_, err := svc.History("me", "ghost", 10, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
	msgs.AssertNotCalled(t, "FindPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageService_Send(t *testing.T) {
	msgs := new(mockMessageRepo)
	users := new(mockUserRepo)
	svc := NewMessageService(msgs, users).(*messageService)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("KST", 9*3600))
	svc.now = func() time.Time { return fixed }

	users.On("FindByID", "bob").Return(&domain.User{ID: "bob"}, nil)
	msgs.On("Create", mock.AnythingOfType("*domain.Message")).Return(nil)

	msg, err := svc.Send("me", "bob", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "me", msg.SenderID)
	assert.Equal(t, "bob", msg.ReceiverID)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.True(t, msg.Timestamp.Equal(fixed))
}

func TestMessageService_SendValidation(t *testing.T) {
	msgs := new(mockMessageRepo)
	users := new(mockUserRepo)
	svc := NewMessageService(msgs, users)

	_, err := svc.Send("me", "bob", "   ")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Send("me", "bob", strings.Repeat("x", MaxMessageLength+1))
	assert.ErrorIs(t, err, common.ErrValidation)

	users.On("FindByID", "ghost").Return(nil, common.ErrNotFound)
	_, err = svc.Send("me", "ghost", "hi")
	assert.ErrorIs(t, err, common.ErrNotFound)

	users.On("FindByID", "bob").Return(&domain.User{ID: "bob"}, nil)
	msgs.On("Create", mock.Anything).Return(errors.New("disk full"))
	_, err = svc.Send("me", "bob", "hi")
	assert.EqualError(t, err, "disk full")
}

func TestMessageService_SendTruncatesToStoredPrecision(t *testing.T) {
	msgs := new(mockMessageRepo)
	users := new(mockUserRepo)
	svc := NewMessageService(msgs, users).(*messageService)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	svc.now = func() time.Time { return fixed }

	users.On("FindByID", "bob").Return(&domain.User{ID: "bob"}, nil)
	msgs.On("Create", mock.MatchedBy(func(m *domain.Message) bool {
		return m.Timestamp.Nanosecond() == 123000000
	})).Return(nil).Once()

	msg, err := svc.Send("me", "bob", "hello")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 123000000, time.UTC), msg.Timestamp)
	msgs.AssertExpectations(t)
}
