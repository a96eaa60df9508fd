// Package http provides the HTTP server, routing, and shared middleware.
package http

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/users/internal/httputil"
	"github.com/allisson/users/internal/metrics"
	userHTTP "github.com/allisson/users/internal/user/http"
)

// RouterConfig holds the settings that change how the router is assembled.
type RouterConfig struct {
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int
	CORSEnabled             bool
	CORSAllowOrigins        string
	MetricsNamespace        string
}

// Server is the users API. Routes are installed by SetupRouter.
type Server struct {
	listener
	db     *sql.DB
	router *gin.Engine
}

// NewServer creates the API server. db backs the readiness probe.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		listener: newListener("http server", host, port, logger),
		db:       db,
	}
}

// SetupRouter registers middleware and every route. A nil metricsProvider disables HTTP metrics.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg RouterConfig,
	userHandler *userHTTP.UserHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic recovered",
			slog.Any("error", recovered),
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
		)
		httputil.AbortWithError(c, http.StatusInternalServerError, httputil.CodeInternalError, "Unexpected error")
	}))
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.NoRoute(func(c *gin.Context) {
		httputil.AbortWithError(c, http.StatusNotFound, httputil.CodeNotFound, "Resource not found")
	})

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")

		createHandlers := []gin.HandlerFunc{}
		if cfg.RateLimitEnabled {
			createHandlers = append(createHandlers,
				RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
		}
		createHandlers = append(createHandlers, userHandler.CreateHandler)

		users.POST("", createHandlers...)
		users.GET("", userHandler.GetByEmailHandler)
		users.GET("/:id", userHandler.GetByIDHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves the API until Shutdown is called. SetupRouter must run first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured")
	}
	return s.serve(s.router)
}

// healthHandler reports that the process is alive.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
