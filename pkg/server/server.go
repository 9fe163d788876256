// Package server exposes the analyzer over HTTP.
//
// Endpoints:
//
//	POST /analyze  {"query": "...", "dialect": "mysql"} -> AnalysisResult
//	GET  /rules    the enabled rule catalog
//	GET  /health   {"status": "healthy"}
//	GET  /         {"message": "SQL Optimizer API is running"}
//
// The analyzer can be swapped while the server runs, which is how configuration
// reloads take effect.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-optimizer/pkg/analyzer"
	"github.com/nsxbet/sql-optimizer/pkg/cache"
	"github.com/nsxbet/sql-optimizer/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// Server serves analysis requests with a shared analyzer.
type Server struct {
	analyzer atomic.Pointer[analyzer.Analyzer]
	cache    *cache.Cache
	cfg      config.ServerConfig
	logger   *slog.Logger
	handler  http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithCache serves repeated requests from c.
func WithCache(c *cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithConfig sets the listen address, allowed origins and body limit.
func WithConfig(cfg config.ServerConfig) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server around a.
func New(a *analyzer.Analyzer, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cfg.Addr == "" {
		s.cfg.Addr = config.DefaultAddr
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		s.cfg.AllowedOrigins = []string{config.DefaultOrigin}
	}
	if s.cfg.MaxBodyBytes <= 0 {
		s.cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	s.analyzer.Store(a)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /rules", s.handleRules)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	s.handler = s.withRequestID(s.withLogging(s.withCORS(mux)))
	return s
}

// SetAnalyzer replaces the analyzer used by subsequent requests.
func (s *Server) SetAnalyzer(a *analyzer.Analyzer) {
	s.analyzer.Store(a)
}

// Analyzer returns the analyzer currently serving requests.
func (s *Server) Analyzer() *analyzer.Analyzer {
	return s.analyzer.Load()
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.Addr)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down server")
	}
	return nil
}
