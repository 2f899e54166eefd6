package domain

import "time"

// LikeRecord marks that a user likes a post. Existence-only.
type LikeRecord struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PostID    string    `gorm:"column:post_id;size:64;uniqueIndex:idx_like_post_user,priority:1" json:"postId"`
	UserID    string    `gorm:"column:user_id;size:64;uniqueIndex:idx_like_post_user,priority:2" json:"userId"`
	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
}

// TableName returns the table name
func (LikeRecord) TableName() string {
	return "rt_likes"
}

// LikesResponse is the body of GET /likes/{postId}
type LikesResponse struct {
	Likes               []LikeRecord `json:"likes"`
	LikedByLoggedInUser bool         `json:"likedByLoggedInUser"`
}
