package repository

import (
	"github.com/damoang/angple-realtime/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the realtime tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Message{},
		&domain.LikeRecord{},
		&domain.CommentRecord{},
		&domain.Relation{},
	)
}
