// Package server provides the HTTP API for Kaimono.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/indexer"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/pkg/utils"
)

// Server is the HTTP server for the Kaimono API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	catalog storage.Catalog
	config  *config.Config
	metrics http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = utils.OrNop(l) }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	catalog storage.Catalog,
	cfg *config.Config,
	opts ...Option,
) *Server {
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	s := &Server{
		engine:  engine,
		indexer: idx,
		catalog: catalog,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	cfg := s.config.Server
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(rateLimit(cfg.RateLimit, cfg.RateBurst))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limitBody(cfg.MaxBodyBytes))
		r.Post("/search", s.handleSearch)
		r.Post("/products", s.handleIndexProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
