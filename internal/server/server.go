// Package server provides the HTTP surface for the orchestration core.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/context-kit/contextkit/internal/event"
	"github.com/context-kit/contextkit/internal/manager"
	"github.com/context-kit/contextkit/internal/repository"
	"github.com/context-kit/contextkit/internal/tool"
	"github.com/context-kit/contextkit/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8000,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no write timeout for streaming responses
	}
}

// Server is the HTTP server.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	manager  *manager.Manager
	repo     repository.SessionRepository
	registry *tool.Registry
	bus      *event.Bus
	backend  string
}

// New creates a new Server instance.
func New(cfg *Config, mgr *manager.Manager, repo repository.SessionRepository, registry *tool.Registry, bus *event.Bus, backend string) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		manager:  mgr,
		repo:     repo,
		registry: registry,
		bus:      bus,
		backend:  backend,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.health)
	s.router.Get("/event", s.events)

	s.router.Route("/session", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/message", s.sendMessage)
			r.Post("/message/stream", s.streamMessage)
		})
	})
}

// health handles GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	count, err := s.repo.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"backend":  s.backend,
		"sessions": count,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// FromAppConfig builds a server Config from the application configuration.
func FromAppConfig(cfg *types.Config) *Config {
	sc := DefaultConfig()
	sc.Port = cfg.Server.Port
	sc.EnableCORS = cfg.Server.EnableCORS
	return sc
}
