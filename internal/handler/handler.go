package handler

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/middleware"
	"github.com/damoang/angple-realtime/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Pusher delivers server-initiated events to a user's room
type Pusher interface {
	SendToUser(userID, event string, data interface{}) error
}

// requireUser returns the authenticated user ID or writes 401
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "login required")
		return "", false
	}
	return userID, true
}

// fail writes the status matching err's kind; unexpected errors are logged and hidden
func fail(c *gin.Context, err error) {
	status := common.StatusForError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.GetLogger().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		common.ErrorResponse(c, status, "internal error")
		return
	}
	common.ErrorResponse(c, status, err.Error())
}
