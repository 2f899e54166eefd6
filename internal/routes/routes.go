package routes

import (
	"github.com/damoang/angple-realtime/internal/handler"
	"github.com/damoang/angple-realtime/internal/middleware"
	"github.com/damoang/angple-realtime/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler mounted by Setup
type Handlers struct {
	Auth    *handler.AuthHandler
	Message *handler.MessageHandler
	Like    *handler.LikeHandler
	Comment *handler.CommentHandler
	Friend  *handler.FriendHandler
	WS      *handler.WSHandler
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager) {
	auth := middleware.JWTAuth(jwtManager)

	api := router.Group("/api/v1")

	// Authentication endpoints (no auth required)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("", auth)
	secured.GET("/me", h.Auth.Me)

	// Messages
	secured.GET("/history/:counterpartId", h.Message.History)
	secured.POST("/message/:counterpartId", h.Message.Send)

	// Likes
	secured.GET("/likes/:postId", h.Like.Likes)
	secured.POST("/like/:postId", h.Like.Toggle)

	// Comments
	secured.GET("/comments/:postId", h.Comment.List)
	secured.POST("/createComment", h.Comment.Create)
	secured.DELETE("/comments", h.Comment.Delete)

	// Friends
	secured.GET("/friends", h.Friend.Friends)
	secured.GET("/requestSent", h.Friend.SentRequests)
	secured.GET("/pendingRequests", h.Friend.PendingRequests)
	secured.POST("/sendRequest/:username", h.Friend.SendRequest)
	secured.DELETE("/cancelRequest/:username", h.Friend.CancelRequest)
	secured.PUT("/acceptRequest/:username", h.Friend.AcceptRequest)
	secured.DELETE("/removeFriend/:username", h.Friend.RemoveFriend)

	// Realtime channel
	router.GET("/ws", auth, h.WS.Connect)
}
