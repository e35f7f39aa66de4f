package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/gohm/internal/config"
	"github.com/me/gohm/internal/store"
	"github.com/me/gohm/pkg/health"
)

// Server is the GoHM REST API server. It is a read-only window onto a running
// executor: policy status, in-memory table snapshots, and the archived
// history in the store.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	executor  *health.Executor
	store     store.Store
}

// New creates a new Server with all routes registered.
// st may be nil when no archive store is configured; the artifact endpoints
// then report 404.
func New(cfg config.ServerConfig, exec *health.Executor, st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		executor:  exec,
		store:     st,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Policies
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", s.handleListPolicies)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetPolicy)
				r.Route("/{table}", func(r chi.Router) {
					r.Get("/", s.handleGetTable)
					r.Get("/artifacts", s.handleListArtifacts)
				})
			})
		})
	})
}
