package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// NewServer builds an HTTP server with the WebSocket endpoint and read-only API routes.
// /ws is served straight from the mux; the hijacked connection must not pass through gin.
func NewServer(hub *core.Hub, identities *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.GET("/online", apiHandlers.Online)
		api.GET("/rooms", apiHandlers.Rooms)
		api.GET("/rooms/:room/history", apiHandlers.RoomHistory)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, identities, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.Header("x-status", "ok")
	c.Status(stdhttp.StatusNoContent)
}
