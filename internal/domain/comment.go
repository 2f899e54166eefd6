package domain

import "time"

// CommentRecord is a comment on a post. Append-only from the client's perspective.
type CommentRecord struct {
	ID        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	PostID    string    `gorm:"column:post_id;size:64;index" json:"postId"`
	UserID    string    `gorm:"column:user_id;size:64" json:"userId"`
	Text      string    `gorm:"column:text;type:text" json:"text"`
	Timestamp time.Time `gorm:"column:created_at" json:"timestamp"`
}

// TableName returns the table name
func (CommentRecord) TableName() string {
	return "rt_comments"
}

// CommentsResponse is the body of GET /comments/{postId}
type CommentsResponse struct {
	Comments     []CommentRecord `json:"comments"`
	CommentCount int             `json:"commentCount"`
}

// CreateCommentRequest is the body of POST /createComment
type CreateCommentRequest struct {
	PostID string `json:"postId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// CommentResponse wraps a single comment
type CommentResponse struct {
	Comment CommentRecord `json:"comment"`
}

// DeleteCommentRequest is the body of DELETE /comments
type DeleteCommentRequest struct {
	ID     string `json:"id" binding:"required"`
	PostID string `json:"postId" binding:"required"`
}
