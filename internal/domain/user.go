package domain

import "time"

// User is the public profile of an account
type User struct {
	ID        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Username  string    `gorm:"column:username;size:64;uniqueIndex" json:"username"`
	MediaURL  string    `gorm:"column:media_url" json:"media_url,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
}

// TableName returns the table name
func (User) TableName() string {
	return "rt_users"
}

// Me is the logged-in user together with the friend list
type Me struct {
	User
	Friends []User `json:"friends"`
}

// MeResponse is the body of GET /me
type MeResponse struct {
	User Me `json:"user"`
}

// LoginRequest is the dev-server login body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
}

// LoginResponse carries the issued session token
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
