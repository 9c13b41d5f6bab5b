package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/velorun/race-server/internal/config"
	"github.com/velorun/race-server/internal/core"
)

// NewServer builds the HTTP server: REST lobby API plus the WebSocket bridge.
func NewServer(lobby *core.Lobby, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	handlers := NewLobbyHandlers(lobby, cfg, logger)
	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	api.GET("/info", handlers.Info)
	api.GET("/rooms", handlers.ListRooms)
	api.POST("/rooms/join", handlers.JoinRoom)

	router.GET("/ws", gin.WrapH(NewWSHandler(lobby, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
