// Package server is the HTTP control surface: start/stop/status of the
// engine, manual task triggering, stats, and health/metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/orchestrator"
	"git.home.luguber.info/inful/socialpilot/internal/relationship"
	"git.home.luguber.info/inful/socialpilot/internal/scheduler"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Deps bundles the components the control API drives.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Scheduler
	Ledger       *ledger.Ledger
	Relationship *relationship.Service
	Store        store.Store

	// Settings returns the current settings revision.
	Settings func() *config.Settings

	AccountID string

	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

// Server represents the control API server.
type Server struct {
	addr   string
	token  string
	router *chi.Mux
	server *http.Server
	deps   Deps
}

// New creates a control API server.
func New(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		addr:   cfg.Addr,
		token:  cfg.AuthToken,
		router: chi.NewRouter(),
		deps:   deps,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.requireToken)

		r.Post("/bot/start", s.handleStart)
		r.Post("/bot/stop", s.handleStop)
		r.Get("/bot/status", s.handleStatus)

		r.Post("/tasks/{name}/run", s.handleRunTask)

		r.Get("/stats", s.handleStats)
		r.Get("/relationships/unfollow-candidates", s.handleUnfollowCandidates)
	})
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response is the standard API envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Error writes an error response.
func (s *Server) Error(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: false, Error: message})
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
