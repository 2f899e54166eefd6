package handler

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/service"
	"github.com/damoang/angple-realtime/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// MessageHandler handles private message history and persistence
type MessageHandler struct {
	messages service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// History handles GET /history/:counterpartId?limit=N&beforeTimestamp=T
func (h *MessageHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	before, err := ginutil.QueryTime(c, "beforeTimestamp")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "beforeTimestamp must be RFC3339")
		return
	}
	limit := ginutil.QueryInt(c, "limit", service.DefaultHistoryLimit)

	msgs, err := h.messages.History(userID, c.Param("counterpartId"), limit, before)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.HistoryResponse{Messages: msgs})
}

// Send handles POST /message/:counterpartId
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "message is required")
		return
	}

	msg, err := h.messages.Send(userID, c.Param("counterpartId"), req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.MessageResponse{Message: *msg})
}

