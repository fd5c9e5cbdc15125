// Package api provides the HTTP API server and handlers for bookfinder search sessions.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/bookfinder/internal/http/response"
	"github.com/listenupapp/bookfinder/internal/ratelimit"
	"github.com/listenupapp/bookfinder/internal/session"
	"github.com/listenupapp/bookfinder/internal/validation"
)

// Options configures the HTTP surface.
type Options struct {
	Version        string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions  *session.Manager
	validator *validation.Validator
	backend   HealthChecker
	router    *chi.Mux
	api       huma.API
	limiter   *RateLimiter
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// backend may be nil when the search backend has no health probe.
func NewServer(sessions *session.Manager, v *validation.Validator, backend HealthChecker, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 20
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 40
	}

	s := &Server{
		sessions:  sessions,
		validator: v,
		backend:   backend,
		router:    chi.NewRouter(),
		limiter:   ratelimit.New(opts.RateLimitRPS, opts.RateLimitBurst),
		logger:    logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Bookfinder API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerSessionRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown stops the inbound rate limiter's cleanup goroutine.
func (s *Server) Shutdown() error {
	s.limiter.Stop()
	return nil
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
}
