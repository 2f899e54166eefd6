package repository

import (
	"github.com/damoang/angple-realtime/internal/domain"
	"gorm.io/gorm"
)

// CommentRepository comment data access interface
type CommentRepository interface {
	Create(comment *domain.CommentRecord) error
	FindByID(id string) (*domain.CommentRecord, error)
	FindByPost(postID string) ([]domain.CommentRecord, error)
	Delete(id string) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create stores a comment
func (r *commentRepository) Create(comment *domain.CommentRecord) error {
	return r.db.Create(comment).Error
}

// FindByID finds a comment by ID
func (r *commentRepository) FindByID(id string) (*domain.CommentRecord, error) {
	var comment domain.CommentRecord
	if err := r.db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

// FindByPost returns the comments of a post in creation order
func (r *commentRepository) FindByPost(postID string) ([]domain.CommentRecord, error) {
	comments := []domain.CommentRecord{}
	err := r.db.Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

// Delete removes a comment
func (r *commentRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.CommentRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}
