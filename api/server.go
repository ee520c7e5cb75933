// Package api exposes the catalog operations over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/github"
	"github.com/jmgilman/go/catalog/internal/logging"
)

// Syncer is the subset of *catalog.Syncer served by the API.
type Syncer interface {
	GetCatalog(ctx context.Context, forceRefresh bool) (*catalog.Snapshot, error)
	RefreshStars(ctx context.Context, forceFull bool) (*catalog.RefreshReport, error)
	RefreshKeys(ctx context.Context, keys []catalog.RepoKey) (*catalog.KeysReport, error)
}

// RateLimitChecker reports the popularity API quota. github.Provider
// implementations satisfy it.
type RateLimitChecker interface {
	GetRateLimit(ctx context.Context) (*github.RateLimit, error)
}

// Server serves the catalog HTTP API.
//
// Syncer does not coordinate concurrent writers, so the server runs at most
// one catalog operation at a time.
type Server struct {
	router   *chi.Mux
	syncer   Syncer
	rate     RateLimitChecker
	origins  []string
	registry *prometheus.Registry
	metrics  *httpMetrics
	logger   *slog.Logger

	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimitChecker enables GET /rate-limit.
func WithRateLimitChecker(rate RateLimitChecker) Option {
	return func(s *Server) {
		s.rate = rate
	}
}

// WithAllowedOrigins sets the CORS allowed origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithRegistry serves GET /metrics from registry and records request
// metrics in it.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.OrNop(logger)
	}
}

// NewServer creates a Server for syncer.
func NewServer(syncer Syncer, opts ...Option) (*Server, error) {
	if syncer == nil {
		err := errors.New(errors.CodeInvalidInput, "syncer cannot be nil")
		return nil, errors.WithContext(err, "field", "syncer")
	}

	s := &Server{
		router:  chi.NewRouter(),
		syncer:  syncer,
		origins: []string{"*"},
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry != nil {
		s.metrics = newHTTPMetrics(s.registry)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/rate-limit", s.handleRateLimit)

	s.router.Route("/store", func(r chi.Router) {
		r.Get("/available-plugins", s.handleAvailablePlugins)
		r.Post("/update-stars", s.handleUpdateStars)
		r.Post("/update-stars-batch", s.handleUpdateStarsBatch)
	})

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

// requestLogger logs every request with slog and records request metrics.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		s.metrics.observe(r.Method, route, ww.Status(), duration)

		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration_ms", duration.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, errors.CodeUnavailable, "HTTP server failed")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "HTTP server shutdown failed")
	}
	return nil
}
