package repository

import (
	"github.com/damoang/angple-realtime/internal/domain"
	"gorm.io/gorm"
)

// RelationRepository friend request / friendship data access interface
type RelationRepository interface {
	// FindBetween returns the single row for the pair, in either direction
	FindBetween(a, b string) (*domain.Relation, error)
	Create(rel *domain.Relation) error
	Accept(id uint) error
	Delete(id uint) error
	// FriendIDs returns the counterparts of every accepted row of userID
	FriendIDs(userID string) ([]string, error)
	// Outgoing returns pending rows sent by userID
	Outgoing(userID string) ([]domain.Relation, error)
	// Incoming returns pending rows addressed to userID
	Incoming(userID string) ([]domain.Relation, error)
}

type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository creates a new RelationRepository
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

// PairKey is the unordered key stored in the unique pair_key column
func PairKey(a, b string) string {
	return domain.KeyOf(a, b).String()
}

func (r *relationRepository) FindBetween(a, b string) (*domain.Relation, error) {
	var rel domain.Relation
	if err := r.db.Where("pair_key = ?", PairKey(a, b)).First(&rel).Error; err != nil {
		return nil, notFound(err)
	}
	return &rel, nil
}

func (r *relationRepository) Create(rel *domain.Relation) error {
	rel.PairKey = PairKey(rel.SenderID, rel.ReceiverID)
	return r.db.Create(rel).Error
}

func (r *relationRepository) Accept(id uint) error {
	res := r.db.Model(&domain.Relation{}).
		Where("id = ? AND accepted = ?", id, false).
		Update("accepted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *relationRepository) Delete(id uint) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Relation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *relationRepository) FriendIDs(userID string) ([]string, error) {
	var rels []domain.Relation
	err := r.db.Where("accepted = ? AND (sender_id = ? OR receiver_id = ?)", true, userID, userID).
		Order("id ASC").
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rels))
	for _, rel := range rels {
		if rel.SenderID == userID {
			ids = append(ids, rel.ReceiverID)
		} else {
			ids = append(ids, rel.SenderID)
		}
	}
	return ids, nil
}

func (r *relationRepository) Outgoing(userID string) ([]domain.Relation, error) {
	rels := []domain.Relation{}
	err := r.db.Where("sender_id = ? AND accepted = ?", userID, false).Order("id ASC").Find(&rels).Error
	return rels, err
}

func (r *relationRepository) Incoming(userID string) ([]domain.Relation, error) {
	rels := []domain.Relation{}
	err := r.db.Where("receiver_id = ? AND accepted = ?", userID, false).Order("id ASC").Find(&rels).Error
	return rels, err
}
