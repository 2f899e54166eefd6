package handler

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/service"
	"github.com/gin-gonic/gin"
)

// CommentHandler handles post comment requests
type CommentHandler struct {
	comments service.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List handles GET /comments/:postId
func (h *CommentHandler) List(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	resp, err := h.comments.List(c.Param("postId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /createComment
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req domain.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "postId and text are required")
		return
	}

	comment, err := h.comments.Create(userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.CommentResponse{Comment: *comment})
}

// Delete handles DELETE /comments
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req domain.DeleteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "id and postId are required")
		return
	}

	if err := h.comments.Delete(userID, &req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
