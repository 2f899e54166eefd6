package handler

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/service"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/damoang/angple-realtime/pkg/logger"
	"github.com/gin-gonic/gin"
)

// FriendHandler handles friend request and friendship endpoints.
// Every successful transition pushes friends_changed to both users.
type FriendHandler struct {
	friends service.FriendService
	pusher  Pusher
}

// NewFriendHandler creates a new FriendHandler. pusher may be nil.
func NewFriendHandler(friends service.FriendService, pusher Pusher) *FriendHandler {
	return &FriendHandler{friends: friends, pusher: pusher}
}

// Friends handles GET /friends
func (h *FriendHandler) Friends(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	friends, err := h.friends.Friends(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.FriendsResponse{Friends: friends})
}

// SentRequests handles GET /requestSent
func (h *FriendHandler) SentRequests(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sent, err := h.friends.SentRequests(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.SentRequestsResponse{Requests: sent})
}

// PendingRequests handles GET /pendingRequests
func (h *FriendHandler) PendingRequests(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	pending, err := h.friends.PendingRequests(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.PendingRequestsResponse{PendingRequests: pending})
}

// SendRequest handles POST /sendRequest/:username
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	target, err := h.friends.SendRequest(userID, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}
	h.notify(userID, target.ID)
	c.JSON(http.StatusCreated, domain.SendRequestResponse{
		Message: "friend request sent",
		Data:    service.ToSentRequest(*target),
	})
}

// CancelRequest handles DELETE /cancelRequest/:username
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	target, err := h.friends.CancelRequest(userID, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}
	h.notify(userID, target.ID)
	c.JSON(http.StatusOK, domain.FriendActionResponse{Message: "friend request cancelled"})
}

// AcceptRequest handles PUT /acceptRequest/:username
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	friend, err := h.friends.AcceptRequest(userID, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}
	h.notify(userID, friend.ID)
	c.JSON(http.StatusOK, domain.AcceptRequestResponse{Message: "friend request accepted", Data: *friend})
}

// RemoveFriend handles DELETE /removeFriend/:username
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	target, err := h.friends.RemoveFriend(userID, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}
	h.notify(userID, target.ID)
	c.JSON(http.StatusOK, domain.FriendActionResponse{Message: "friend removed"})
}

func (h *FriendHandler) notify(actorID, counterpartID string) {
	if h.pusher == nil {
		return
	}
	ev := domain.FriendsChangedEvent{UserID: actorID}
	for _, id := range []string{actorID, counterpartID} {
		if err := h.pusher.SendToUser(id, ws.EventFriendsChanged, ev); err != nil {
			logger.GetLogger().Warn().Err(err).Str("user_id", id).Msg("friends_changed push failed")
		}
	}
}
