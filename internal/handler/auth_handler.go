package handler

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles session bootstrap requests
type AuthHandler struct {
	users service.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "username is required")
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me handles GET /me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	me, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.MeResponse{User: *me})
}
