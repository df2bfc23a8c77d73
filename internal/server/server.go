// Package server
//
// @title Shopfront Gateway API
// @version 1.0
// @description Storefront gateway in front of the product and auth backend
// @host localhost:3000
// @BasePath /
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/backend"
	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/metrics"
	"github.com/shopfront-dev/shopfront/internal/revocations"
)

const requestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   zerolog.Logger
	backend  *backend.Client
	registry revocations.Registry
	decoder  *auth.Decoder
	cookies  auth.CookiePolicy
	gate     *Gate
	version  string
}

// New creates a new server instance. The registry is owned by the caller.
func New(cfg *config.Config, zlog zerolog.Logger, registry revocations.Registry, version string) *Server {
	decoder := auth.NewDecoder(cfg.Session.JWTSecret)
	cookies := auth.CookiePolicy{
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.SecureCookies,
	}

	if !decoder.Verifies() {
		zlog.Info().Msg("JWT_SECRET not set - edge gate decodes tokens without verifying signatures")
	}

	server := &Server{
		config:   cfg,
		logger:   zlog,
		backend:  backend.New(cfg.Backend.URL, cfg.Backend.Timeout),
		registry: registry,
		decoder:  decoder,
		cookies:  cookies,
		gate: &Gate{
			Prefixes:  cfg.Session.ProtectedPrefixes,
			LoginPath: cfg.Session.LoginPath,
			Decoder:   decoder,
			Registry:  registry,
			Cookies:   cookies,
			Logger:    zlog,
		},
		version: version,
	}

	server.setupRouter()

	return server
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(metrics.Middleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Runs for every request, including pages served through NoRoute
	s.router.Use(s.gate.Handler())

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())

	api := s.router.Group("/api")
	{
		api.GET("/auth", s.authInfo)
		api.POST("/auth", s.authenticate)
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/session", s.currentSession)

		api.GET("/products", s.listProducts)
		api.POST("/products", s.createProduct)
		api.GET("/products/search", s.searchProducts)
		api.GET("/products/:id", s.getProduct)
		api.PUT("/products/:id", s.updateProduct)
		api.DELETE("/products/:id", s.deleteProduct)
	}

	s.router.NoRoute(s.servePage)
}

// requestIDMiddleware tags each request with an id and a request-scoped logger
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		reqLogger := s.logger.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		logger.FromContext(c.Request.Context()).Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "shopfront-gateway",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// Upstream calls are bounded by the backend timeout; leave headroom on top
		ReadTimeout:       s.config.Backend.Timeout + 30*time.Second,
		WriteTimeout:      s.config.Backend.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("backend", s.config.Backend.URL).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
