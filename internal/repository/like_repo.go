package repository

import (
	"github.com/damoang/angple-realtime/internal/domain"
	"gorm.io/gorm"
)

// LikeRepository like data access interface
type LikeRepository interface {
	FindByPost(postID string) ([]domain.LikeRecord, error)
	// Toggle adds the like when absent and removes it when present.
	// It reports whether the post is liked afterwards.
	Toggle(postID, userID string) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// FindByPost returns every like of a post, oldest first
func (r *likeRepository) FindByPost(postID string) ([]domain.LikeRecord, error) {
	likes := []domain.LikeRecord{}
	err := r.db.Where("post_id = ?", postID).Order("id ASC").Find(&likes).Error
	return likes, err
}

// Toggle flips the like inside one transaction
func (r *likeRepository) Toggle(postID, userID string) (bool, error) {
	liked := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.LikeRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		liked = true
		return tx.Create(&domain.LikeRecord{PostID: postID, UserID: userID}).Error
	})
	return liked, err
}
