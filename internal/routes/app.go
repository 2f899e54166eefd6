package routes

import (
	"net/http"

	"github.com/damoang/angple-realtime/internal/handler"
	"github.com/damoang/angple-realtime/internal/middleware"
	"github.com/damoang/angple-realtime/internal/repository"
	"github.com/damoang/angple-realtime/internal/service"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/damoang/angple-realtime/pkg/cache"
	"github.com/damoang/angple-realtime/pkg/jwt"
	"github.com/damoang/angple-realtime/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles the reference server is built from
type Deps struct {
	DB             *gorm.DB
	Redis          *redis.Client // optional
	JWT            *jwt.Manager
	AllowedOrigins []string
}

// App is a wired reference server
type App struct {
	Engine *gin.Engine
	Hub    *ws.Hub
}

// NewApp wires repositories, services, handlers and the room hub onto a gin engine.
// The caller owns the engine's global middleware.
func NewApp(router *gin.Engine, deps Deps) *App {
	hub := ws.NewHub(deps.Redis, logger.Component("hub"))
	go hub.Run()

	cacheService := cache.NewService(deps.Redis)

	userRepo := repository.NewUserRepository(deps.DB)
	messageRepo := repository.NewMessageRepository(deps.DB)
	likeRepo := repository.NewLikeRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	relationRepo := repository.NewRelationRepository(deps.DB)

	userService := service.NewUserService(userRepo, relationRepo, deps.JWT, cacheService)
	messageService := service.NewMessageService(messageRepo, userRepo)
	likeService := service.NewLikeService(likeRepo, cacheService)
	commentService := service.NewCommentService(commentRepo)
	friendService := service.NewFriendService(userRepo, relationRepo)

	router.Use(middleware.Metrics(), middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": cacheService.IsAvailable()})
	})

	Setup(router, Handlers{
		Auth:    handler.NewAuthHandler(userService),
		Message: handler.NewMessageHandler(messageService),
		Like:    handler.NewLikeHandler(likeService),
		Comment: handler.NewCommentHandler(commentService),
		Friend:  handler.NewFriendHandler(friendService, hub),
		WS:      handler.NewWSHandler(hub, deps.AllowedOrigins),
	}, deps.JWT)

	return &App{Engine: router, Hub: hub}
}

// Close stops the hub
func (a *App) Close() {
	a.Hub.Stop()
}
