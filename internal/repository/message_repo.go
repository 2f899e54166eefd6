package repository

import (
	"time"

	"github.com/damoang/angple-realtime/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository private message data access interface
type MessageRepository interface {
	Create(msg *domain.Message) error
	// FindPage returns up to limit messages between a and b, newest first,
	// strictly older than before when before is set
	FindPage(a, b string, before *time.Time, limit int) ([]domain.Message, error)
	CountConversation(a, b string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create stores a message, stamping its conversation key
func (r *messageRepository) Create(msg *domain.Message) error {
	msg.Conversation = msg.Key().String()
	return r.db.Create(msg).Error
}

// FindPage returns one newest-first page of a conversation
func (r *messageRepository) FindPage(a, b string, before *time.Time, limit int) ([]domain.Message, error) {
	msgs := []domain.Message{}
	query := r.db.Where("conversation_key = ?", domain.KeyOf(a, b).String())
	if before != nil {
		query = query.Where("created_at < ?", before.UTC())
	}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// CountConversation counts messages exchanged by a and b
func (r *messageRepository) CountConversation(a, b string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("conversation_key = ?", domain.KeyOf(a, b).String()).
		Count(&count).Error
	return count, err
}
