// Package server exposes the query-facing HTTP API consumed by the
// portal UI.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/metalink"
	"github.com/soundprediction/metalink/pkg/config"
	"github.com/soundprediction/metalink/pkg/server/handlers"
)

// Server represents the HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	metalink metalink.Metalink
	server   *http.Server
	logger   *slog.Logger
}

// New creates a new server instance.
func New(cfg *config.Config, client metalink.Metalink, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		metalink: client,
		logger:   logger.With("component", "server"),
	}
}

// Setup sets up the server routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router exposes the configured routes, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes sets up all the routes.
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.metalink)
	queryHandler := handlers.NewQueryHandler(s.metalink)
	rebuildHandler := handlers.NewRebuildHandler(s.metalink)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/search", queryHandler.Search)
		v1.GET("/nodes/:id", queryHandler.GetNode)
		v1.GET("/nodes/:id/similar", queryHandler.Similar)
		v1.GET("/compare", queryHandler.Compare)
		v1.GET("/autocomplete", queryHandler.Autocomplete)
		v1.POST("/rebuild", rebuildHandler.Rebuild)
	}
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for the browser UI.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
