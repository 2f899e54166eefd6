package social

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/damoang/angple-realtime/internal/channel"
	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const pushRefreshTimeout = 10 * time.Second

// FriendsAPI is the request/response side of the friend graph
type FriendsAPI interface {
	Friends(ctx context.Context) ([]domain.User, error)
	SentRequests(ctx context.Context) ([]domain.SentRequest, error)
	PendingRequests(ctx context.Context) ([]domain.User, error)
	SendRequest(ctx context.Context, username string) (domain.SentRequest, error)
	CancelRequest(ctx context.Context, username string) error
	AcceptRequest(ctx context.Context, username string) (domain.User, error)
	RemoveFriend(ctx context.Context, username string) error
}

// Notifier surfaces a failed background read with a retry action
type Notifier interface {
	Error(message string, retry func()) string
}

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Graph holds the three authoritative collections of the logged-in user.
// Local state changes only after the server acknowledged a transition.
type Graph struct {
	api FriendsAPI
	log zerolog.Logger

	mu          sync.Mutex
	friends     []domain.User
	sent        []domain.SentRequest
	pending     []domain.User
	unsubscribe func()
}

// NewGraph creates an empty graph; call Refresh to load it
func NewGraph(api FriendsAPI, log zerolog.Logger) *Graph {
	return &Graph{api: api, log: log}
}

// Derive is the status of userID given the friend and outgoing request collections
func Derive(friends []domain.User, sent []domain.SentRequest, userID string) domain.FriendStatus {
	for _, f := range friends {
		if f.ID == userID {
			return domain.StatusConnected
		}
	}
	for _, r := range sent {
		if r.FriendID == userID {
			return domain.StatusPendingOutgoing
		}
	}
	return domain.StatusNone
}

// Status derives the current status of userID
func (g *Graph) Status(userID string) domain.FriendStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Derive(g.friends, g.sent, userID)
}

// Incoming reports whether userID has a request waiting for the current user
func (g *Graph) Incoming(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return indexOfUser(g.pending, userID) >= 0
}

// Friends returns the connected users
func (g *Graph) Friends() []domain.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.User(nil), g.friends...)
}

// Sent returns the outgoing requests
func (g *Graph) Sent() []domain.SentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.SentRequest(nil), g.sent...)
}

// Pending returns the users waiting for an answer
func (g *Graph) Pending() []domain.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.User(nil), g.pending...)
}

// Friend looks a user up in the friend list
func (g *Graph) Friend(userID string) (domain.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := indexOfUser(g.friends, userID); i >= 0 {
		return g.friends[i], true
	}
	return domain.User{}, false
}

// Lookup finds a known counterpart by username among friends, sent and pending requests
func (g *Graph) Lookup(username string) (domain.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, f := range g.friends {
		if f.Username == username {
			return f, true
		}
	}
	for _, p := range g.pending {
		if p.Username == username {
			return p, true
		}
	}
	for _, r := range g.sent {
		if r.FriendUsername == username {
			return domain.User{ID: r.FriendID, Username: r.FriendUsername}, true
		}
	}
	return domain.User{}, false
}

// Refresh reloads all three collections. On failure the previous state is kept.
func (g *Graph) Refresh(ctx context.Context) error {
	var (
		friends []domain.User
		sent    []domain.SentRequest
		pending []domain.User
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		friends, err = g.api.Friends(ctx)
		return err
	})
	eg.Go(func() (err error) {
		sent, err = g.api.SentRequests(ctx)
		return err
	})
	eg.Go(func() (err error) {
		pending, err = g.api.PendingRequests(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		g.log.Warn().Err(err).Msg("friend graph refresh failed")
		return fmt.Errorf("refresh friends: %w", err)
	}

	g.mu.Lock()
	g.friends, g.sent, g.pending = friends, sent, pending
	g.mu.Unlock()
	return nil
}

// SendRequest moves none -> pending-outgoing
func (g *Graph) SendRequest(ctx context.Context, u domain.User) error {
	req, err := g.api.SendRequest(ctx, u.Username)
	if err != nil {
		return g.rejected(ctx, "send request", u, err)
	}
	if req.FriendID == "" {
		req.FriendID = u.ID
	}
	if req.FriendUsername == "" {
		req.FriendUsername = u.Username
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if Derive(nil, g.sent, req.FriendID) == domain.StatusNone {
		g.sent = append(g.sent, req)
	}
	return nil
}

// CancelRequest moves pending-outgoing -> none
func (g *Graph) CancelRequest(ctx context.Context, u domain.User) error {
	if err := g.api.CancelRequest(ctx, u.Username); err != nil {
		return g.rejected(ctx, "cancel request", u, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = removeSent(g.sent, u.ID)
	return nil
}

// AcceptRequest moves pending-incoming -> connected
func (g *Graph) AcceptRequest(ctx context.Context, u domain.User) error {
	friend, err := g.api.AcceptRequest(ctx, u.Username)
	if err != nil {
		return g.rejected(ctx, "accept request", u, err)
	}
	if friend.ID == "" {
		friend = u
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = removeUser(g.pending, friend.ID)
	if indexOfUser(g.friends, friend.ID) < 0 {
		g.friends = append(g.friends, friend)
	}
	return nil
}

// RemoveFriend moves connected -> none. Nothing is sent unless confirm approves.
func (g *Graph) RemoveFriend(ctx context.Context, u domain.User, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, fmt.Sprintf("Remove %s from your friends?", u.Username)) {
		return common.ErrNotConfirmed
	}
	if err := g.api.RemoveFriend(ctx, u.Username); err != nil {
		return g.rejected(ctx, "remove friend", u, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.friends = removeUser(g.friends, u.ID)
	return nil
}

// rejected refreshes authoritative state when the server saw a different state
func (g *Graph) rejected(ctx context.Context, op string, u domain.User, err error) error {
	g.log.Warn().Err(err).Str("op", op).Str("username", u.Username).Msg("friend transition rejected")
	if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrNotFound) {
		if rerr := g.Refresh(ctx); rerr != nil {
			g.log.Warn().Err(rerr).Msg("refresh after conflict failed")
		}
	}
	return fmt.Errorf("%s %s: %w", op, u.Username, err)
}

// Watch refreshes the graph whenever the server pushes friends_changed.
// A failed refresh is reported to notifier, which may be nil.
func (g *Graph) Watch(events channel.Subscriber, notifier Notifier) {
	var refresh func()
	refresh = func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), pushRefreshTimeout)
			defer cancel()
			if err := g.Refresh(ctx); err != nil && notifier != nil {
				notifier.Error("Could not load friends", refresh)
			}
		}()
	}
	off := events.On(ws.EventFriendsChanged, func(*ws.Envelope) { refresh() })

	g.mu.Lock()
	prev := g.unsubscribe
	g.unsubscribe = off
	g.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Reset drops all state and the push subscription
func (g *Graph) Reset() {
	g.mu.Lock()
	off := g.unsubscribe
	g.unsubscribe = nil
	g.friends, g.sent, g.pending = nil, nil, nil
	g.mu.Unlock()
	if off != nil {
		off()
	}
}

func indexOfUser(users []domain.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func removeUser(users []domain.User, id string) []domain.User {
	out := users[:0:0]
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func removeSent(sent []domain.SentRequest, id string) []domain.SentRequest {
	out := sent[:0:0]
	for _, r := range sent {
		if r.FriendID != id {
			out = append(out, r)
		}
	}
	return out
}
