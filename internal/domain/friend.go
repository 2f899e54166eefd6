package domain

import "time"

// FriendStatus is the relationship between the logged-in user and one counterpart
type FriendStatus string

const (
	StatusNone            FriendStatus = "none"
	StatusPendingOutgoing FriendStatus = "pending-outgoing"
	StatusPendingIncoming FriendStatus = "pending-incoming"
	StatusConnected       FriendStatus = "connected"
)

// FriendRequest is one relationship as seen from its sender
type FriendRequest struct {
	SenderID   string       `json:"senderId"`
	ReceiverID string       `json:"receiverId"`
	Status     FriendStatus `json:"status"`
}

// Relation is the server-side row behind a request or a friendship.
// At most one row exists per unordered pair.
type Relation struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SenderID   string    `gorm:"column:sender_id;size:64;index"`
	ReceiverID string    `gorm:"column:receiver_id;size:64;index"`
	PairKey    string    `gorm:"column:pair_key;size:140;uniqueIndex"`
	Accepted   bool      `gorm:"column:accepted"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name
func (Relation) TableName() string {
	return "rt_relations"
}

// SentRequest is an outgoing pending request
type SentRequest struct {
	FriendID       string `json:"friend_id"`
	FriendUsername string `json:"friend_username"`
	Status         string `json:"status"`
}

// FriendsResponse is the body of GET /friends
type FriendsResponse struct {
	Friends []User `json:"friends"`
}

// SentRequestsResponse is the body of GET /requestSent
type SentRequestsResponse struct {
	Requests []SentRequest `json:"requests"`
}

// PendingRequestsResponse is the body of GET /pendingRequests
type PendingRequestsResponse struct {
	PendingRequests []User `json:"pendingRequests"`
}

// SendRequestResponse is the body of POST /sendRequest/{username}
type SendRequestResponse struct {
	Message string      `json:"message"`
	Data    SentRequest `json:"data"`
}

// AcceptRequestResponse is the body of PUT /acceptRequest/{username}
type AcceptRequestResponse struct {
	Message string `json:"message"`
	Data    User   `json:"data"`
}

// FriendActionResponse is the body of cancel/remove calls
type FriendActionResponse struct {
	Message string `json:"message"`
}

// FriendsChangedEvent is pushed to both parties after any relationship change
type FriendsChangedEvent struct {
	UserID string `json:"userId"`
}
