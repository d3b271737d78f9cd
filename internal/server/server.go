// Package server exposes the conversation orchestrator over HTTP.
//
// Routes:
//
//	GET  /            liveness banner
//	POST /webhook     Dialogflow-style fulfillment webhook
//	POST /api/v1/chat plain JSON chat endpoint
//	GET  /healthz     dependency health
//	GET  /metrics     Prometheus exposition
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/conversation"
)

// Banner is the body of GET /
const Banner = "Hakikisha Insurance Assistant Server is running!"

// Handler processes one utterance for a session
type Handler interface {
	Handle(ctx context.Context, sessionKey, utterance string) conversation.Result
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server is the HTTP transport
type Server struct {
	cfg     config.ServerConfig
	handler Handler
	router  *gin.Engine
	logger  *slog.Logger

	gatherer prometheus.Gatherer
	checks   map[string]HealthCheck
}

// Option configures a Server
type Option func(*Server)

// WithGatherer exposes the given registry on /metrics (default: prometheus.DefaultGatherer)
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHealthCheck adds a named dependency check to /healthz
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New builds the router
func New(cfg config.ServerConfig, h Handler, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		handler:  h,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
		checks:   make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))

	router.GET("/", s.handleBanner)
	router.POST("/webhook", s.handleWebhook)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	v1.POST("/chat", s.handleChat)

	s.router = router
	return s
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.run: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server.run: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("server.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
