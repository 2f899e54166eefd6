package handler

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/service"
	"github.com/gin-gonic/gin"
)

// LikeHandler handles post like requests
type LikeHandler struct {
	likes service.LikeService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likes service.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// Likes handles GET /likes/:postId
func (h *LikeHandler) Likes(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	resp, err := h.likes.Likes(c.Request.Context(), c.Param("postId"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Toggle handles POST /like/:postId
func (h *LikeHandler) Toggle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	liked, err := h.likes.Toggle(c.Request.Context(), c.Param("postId"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
