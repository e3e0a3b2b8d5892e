// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pcstore-backend/internal/config"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/handlers"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/routes"
)

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	Handlers    routes.Handlers
	Health      *handlers.HealthHandler
	Tokens      middleware.TokenValidator
	RateLimiter middleware.WindowCounter
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	log        logrus.FieldLogger
	gin        *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new HTTP server instance with all routes mounted
func NewServer(cfg *config.Config, log logrus.FieldLogger, deps Dependencies) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// Prices and quantities keep their exact decimal text
	binding.EnableDecoderUseNumber = true

	s := &Server{
		config: cfg,
		log:    log,
		gin:    gin.New(),
	}
	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		log.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware(deps)
	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware(deps Dependencies) {
	s.gin.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"panic":      recovered,
		}).Error("panic while serving request")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "internal",
		})
	}))

	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.log))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders(s.config.IsProduction()))

	if deps.RateLimiter != nil {
		s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, deps.RateLimiter, s.log))
	}

	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes(deps Dependencies) {
	if deps.Health != nil {
		s.gin.GET("/health", deps.Health.Health)
		s.gin.GET("/ready", deps.Health.Ready)
	}

	apiV1 := s.gin.Group("/api/v1")
	apiV1.Use(middleware.Identity(deps.Tokens, middleware.IdentityOptions{
		GuestTTL:     s.config.Store.GuestSessionTTL,
		SecureCookie: s.config.IsProduction(),
	}))

	routes.SetupRoutes(apiV1, deps.Handlers)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"cart":     "/api/v1/cart",
					"checkout": "/api/v1/checkout",
					"orders":   "/api/v1/orders",
					"admin":    "/api/v1/admin",
				},
			})
		})
	}
}
