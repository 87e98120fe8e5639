// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/openballot/openballot/internal/audit/http"
	votingHTTP "github.com/openballot/openballot/internal/voting/http"
)

// Server represents the HTTP API server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is assembled separately
// with SetupRouter once the handlers exist.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers and optional middleware wired by the
// dependency injection container. Nil middleware entries are skipped.
type RouterConfig struct {
	VoteHandler     *votingHTTP.VoteHandler
	AuditLogHandler *auditHTTP.AuditLogHandler

	// RateLimit guards the /v1 API group. Health and readiness stay open.
	RateLimit gin.HandlerFunc

	// Metrics records per-request HTTP metrics.
	Metrics gin.HandlerFunc

	CORSEnabled      bool
	CORSAllowOrigins string
}

// SetupRouter assembles the gin router with all routes and middleware.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimit != nil {
		v1.Use(cfg.RateLimit)
	}

	if cfg.VoteHandler != nil {
		votes := v1.Group("/votes")
		votes.POST("", cfg.VoteHandler.CastHandler)
		votes.GET("/:id", cfg.VoteHandler.GetHandler)
		votes.POST("/:id/verify", cfg.VoteHandler.VerifyHandler)
		votes.POST("/:id/count", cfg.VoteHandler.CountHandler)
		votes.POST("/:id/dispute", cfg.VoteHandler.DisputeHandler)
		votes.POST("/:id/resolve", cfg.VoteHandler.ResolveDisputeHandler)
		votes.POST("/:id/invalidate", cfg.VoteHandler.InvalidateHandler)
		votes.GET("/:id/audit-trail", cfg.VoteHandler.AuditTrailHandler)
	}

	if cfg.AuditLogHandler != nil {
		v1.GET("/audit-logs", cfg.AuditLogHandler.ListHandler)
	}

	s.router = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The database
// is the only hard dependency: a failed ping means not ready.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
