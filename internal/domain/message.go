package domain

import (
	"sort"
	"strings"
	"time"
)

// Message is a persisted private message. Immutable once the server assigns ID and Timestamp.
type Message struct {
	ID           string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	SenderID     string    `gorm:"column:sender_id;size:64;index" json:"senderId"`
	ReceiverID   string    `gorm:"column:receiver_id;size:64;index" json:"receiverId"`
	Body         string    `gorm:"column:body;type:text" json:"message"`
	Timestamp    time.Time `gorm:"column:created_at;index" json:"timestamp"`
	Conversation string    `gorm:"column:conversation_key;size:140;index" json:"-"`
}

// TableName returns the table name
func (Message) TableName() string {
	return "rt_messages"
}

// ConversationKey is the unordered pair of participants of one thread
type ConversationKey struct {
	Low  string
	High string
}

// KeyOf builds the conversation key for two participants in either order
func KeyOf(a, b string) ConversationKey {
	if a > b {
		a, b = b, a
	}
	return ConversationKey{Low: a, High: b}
}

func (k ConversationKey) String() string {
	return k.Low + ":" + k.High
}

// Key returns the conversation the message belongs to
func (m Message) Key() ConversationKey {
	return KeyOf(m.SenderID, m.ReceiverID)
}

// Between reports whether the message was exchanged by a and b, in either direction
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Less orders messages by timestamp, ties broken by id
func Less(a, b Message) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return strings.Compare(a.ID, b.ID) < 0
}

// SortMessages sorts msgs chronologically in place
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool { return Less(msgs[i], msgs[j]) })
}

// Reversed returns a reversed copy (newest-first pages become chronological)
func Reversed(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}

// SendMessageRequest is the body of POST /message/{counterpartId}
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// MessageResponse wraps a single persisted message
type MessageResponse struct {
	Message Message `json:"message"`
}

// HistoryResponse is a newest-first page of a conversation
type HistoryResponse struct {
	Messages []Message `json:"messages"`
}
