package service

import (
	"errors"
	"fmt"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/repository"
)

// FriendService business logic for friend requests and friendships.
// Every transition returns the counterpart so callers can notify both sides.
type FriendService interface {
	Friends(userID string) ([]domain.User, error)
	SentRequests(userID string) ([]domain.SentRequest, error)
	PendingRequests(userID string) ([]domain.User, error)

	SendRequest(userID, username string) (*domain.User, error)
	CancelRequest(userID, username string) (*domain.User, error)
	AcceptRequest(userID, username string) (*domain.User, error)
	RemoveFriend(userID, username string) (*domain.User, error)
}

type friendService struct {
	users     repository.UserRepository
	relations repository.RelationRepository
}

// NewFriendService creates a new FriendService
func NewFriendService(users repository.UserRepository, relations repository.RelationRepository) FriendService {
	return &friendService{users: users, relations: relations}
}

func (s *friendService) Friends(userID string) ([]domain.User, error) {
	ids, err := s.relations.FriendIDs(userID)
	if err != nil {
		return nil, err
	}
	return s.users.FindByIDs(ids)
}

func (s *friendService) SentRequests(userID string) ([]domain.SentRequest, error) {
	rels, err := s.relations.Outgoing(userID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(counterparts(rels, userID))
	if err != nil {
		return nil, err
	}
	out := make([]domain.SentRequest, 0, len(users))
	for _, u := range users {
		out = append(out, ToSentRequest(u))
	}
	return out, nil
}

func (s *friendService) PendingRequests(userID string) ([]domain.User, error) {
	rels, err := s.relations.Incoming(userID)
	if err != nil {
		return nil, err
	}
	return s.users.FindByIDs(counterparts(rels, userID))
}

func (s *friendService) SendRequest(userID, username string) (*domain.User, error) {
	target, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if target.ID == userID {
		return nil, common.Validation("cannot befriend yourself")
	}

	_, err = s.relations.FindBetween(userID, target.ID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("relation with %s exists: %w", username, common.ErrConflict)
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	if err := s.relations.Create(&domain.Relation{SenderID: userID, ReceiverID: target.ID}); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *friendService) CancelRequest(userID, username string) (*domain.User, error) {
	target, rel, err := s.lookup(userID, username)
	if err != nil {
		return nil, err
	}
	if rel.Accepted || rel.SenderID != userID {
		return nil, fmt.Errorf("no outgoing request to %s: %w", username, common.ErrConflict)
	}
	if err := s.relations.Delete(rel.ID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *friendService) AcceptRequest(userID, username string) (*domain.User, error) {
	target, rel, err := s.lookup(userID, username)
	if err != nil {
		return nil, err
	}
	if rel.Accepted || rel.ReceiverID != userID {
		return nil, fmt.Errorf("no incoming request from %s: %w", username, common.ErrConflict)
	}
	if err := s.relations.Accept(rel.ID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("request from %s changed: %w", username, common.ErrConflict)
		}
		return nil, err
	}
	return target, nil
}

func (s *friendService) RemoveFriend(userID, username string) (*domain.User, error) {
	target, rel, err := s.lookup(userID, username)
	if err != nil {
		return nil, err
	}
	if !rel.Accepted {
		return nil, fmt.Errorf("not friends with %s: %w", username, common.ErrConflict)
	}
	if err := s.relations.Delete(rel.ID); err != nil {
		return nil, err
	}
	return target, nil
}

// lookup resolves the counterpart and the row between the two users
func (s *friendService) lookup(userID, username string) (*domain.User, *domain.Relation, error) {
	target, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, nil, err
	}
	rel, err := s.relations.FindBetween(userID, target.ID)
	if err != nil {
		return nil, nil, err
	}
	return target, rel, nil
}

func counterparts(rels []domain.Relation, userID string) []string {
	ids := make([]string, 0, len(rels))
	for _, r := range rels {
		if r.SenderID == userID {
			ids = append(ids, r.ReceiverID)
		} else {
			ids = append(ids, r.SenderID)
		}
	}
	return ids
}

// ToSentRequest renders a pending outgoing request to u
func ToSentRequest(u domain.User) domain.SentRequest {
	return domain.SentRequest{FriendID: u.ID, FriendUsername: u.Username, Status: "pending"}
}
