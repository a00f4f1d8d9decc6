package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avolkhov/driftchat-server/internal/auth"
	"github.com/avolkhov/driftchat-server/internal/config"
	"github.com/avolkhov/driftchat-server/internal/core"
	"github.com/avolkhov/driftchat-server/internal/service/friends"
	"github.com/avolkhov/driftchat-server/internal/store"
)

// NewServer builds the HTTP server with REST routes and the websocket endpoint.
func NewServer(
	registry *core.Registry,
	notifier *core.Notifier,
	authService *auth.Service,
	friendsService *friends.Service,
	st store.Store,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, st, logger)
	userHandlers := NewUserHandlers(st, logger)
	friendsHandlers := NewFriendsHandlers(friendsService, st, registry, notifier, logger)
	messageHandlers := NewMessageHandlers(st, notifier, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := router.Group("/api/v1")
	api.POST("/auth/register", apiHandlers.Register)
	api.POST("/auth/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/auth/me", apiHandlers.Me)
	authed.GET("/users/search", userHandlers.SearchUsers)

	authed.GET("/friends", friendsHandlers.List)
	authed.POST("/friends", friendsHandlers.SendRequest)
	authed.POST("/friends/accept", friendsHandlers.AcceptRequest)
	authed.POST("/friends/random", friendsHandlers.RandomFriend)
	authed.DELETE("/friends/:friendId", friendsHandlers.RemoveFriend)

	authed.GET("/messages/:otherUserId", messageHandlers.ListMessages)
	authed.POST("/messages/:otherUserId", messageHandlers.CreateMessage)

	router.GET("/ws", gin.WrapH(NewWSHandler(registry, authService, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
