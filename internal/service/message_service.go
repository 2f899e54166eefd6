package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	MaxMessageLength    = 4000
)

// MessageService business logic for private messages
type MessageService interface {
	// History returns one newest-first page of the conversation with counterpartID
	History(userID, counterpartID string, limit int, before *time.Time) ([]domain.Message, error)
	// Send persists a message and returns it with its server-assigned id and timestamp
	Send(senderID, receiverID, body string) (*domain.Message, error)
}

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	now      func() time.Time
}

// NewMessageService creates a new MessageService
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository) MessageService {
	return &messageService{messages: messages, users: users, now: time.Now}
}

func (s *messageService) History(userID, counterpartID string, limit int, before *time.Time) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if _, err := s.users.FindByID(counterpartID); err != nil {
		return nil, err
	}
	return s.messages.FindPage(userID, counterpartID, before, limit)
}

func (s *messageService) Send(senderID, receiverID, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, common.Validation("message body is empty")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, common.Validation(fmt.Sprintf("message longer than %d characters", MaxMessageLength))
	}
	if _, err := s.users.FindByID(receiverID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("recipient %s: %w", receiverID, err)
		}
		return nil, err
	}

	// the column keeps milliseconds; the returned cursor must match the stored one
	msg := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.messages.Create(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
