// Package server assembles the HTTP router: middleware chain, book routes and operational endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"booksapi/internal/book"
	"booksapi/internal/httpx"
	"booksapi/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

const readyTimeout = 500 * time.Millisecond

// Options tunes the middleware chain.
type Options struct {
	MaxBodyBytes   int64
	AllowedOrigins []string
	EnableHSTS     bool
	MetricsEnabled bool
	// TrustProxyHeaders rewrites RemoteAddr from proxy headers before logging and rate limiting.
	TrustProxyHeaders bool
	// RateLimiter is optional; nil disables throttling.
	RateLimiter *httpx.RateLimitMiddleware
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	router *chi.Mux
	books  *book.Service
	log    logrus.FieldLogger
	opts   Options
}

// New creates a Server with all routes configured.
func New(books *book.Service, log logrus.FieldLogger, opts Options) *Server {
	s := &Server{
		router: chi.NewRouter(),
		books:  books,
		log:    log,
		opts:   opts,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	if s.opts.TrustProxyHeaders {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(httpx.RequestIDMiddleware)
	s.router.Use(httpx.AccessLogMiddleware(s.log))
	s.router.Use(httpx.RecoveryMiddleware(s.log))
	if s.opts.MetricsEnabled {
		s.router.Use(metrics.InstrumentHandler)
	}
	if len(s.opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			ExposedHeaders: []string{httpx.RequestIDHeader},
			MaxAge:         300,
		}))
	}
	s.router.Use(httpx.SecurityHeadersMiddleware(s.opts.EnableHSTS))
	if s.opts.MaxBodyBytes > 0 {
		s.router.Use(httpx.RequestSizeLimitMiddleware(s.opts.MaxBodyBytes))
	}
	if s.opts.RateLimiter != nil {
		s.router.Use(s.opts.RateLimiter.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	if s.opts.MetricsEnabled {
		s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	book.NewHTTPHandler(s.books, s.log).Register(s.router)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.books.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("readiness check failed")
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
