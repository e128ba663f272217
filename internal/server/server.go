package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/auth"
	"github.com/me/neurolens/internal/config"
	"github.com/me/neurolens/internal/dashboard"
	"github.com/me/neurolens/internal/session"
	"github.com/me/neurolens/internal/store"
	"github.com/me/neurolens/internal/ui"
)

// Server is the OpenNeuroLens HTTP server: JSON API plus the HTML pages.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	assets    assets.Store
	store     store.Store
	dashboard *dashboard.Dashboard
	sessions  *session.Manager
	authn     auth.Authenticator
	gate      *auth.Gate
	upgrader  websocket.Upgrader
	ui        *ui.UI // UI handler for web interface
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithAuthenticator replaces the configured username/password check.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(s *Server) {
		s.authn = a
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, a assets.Store, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		assets:    a,
		store:     st,
		authn:     auth.NewStatic(cfg.Username, cfg.Password),
	}
	for _, opt := range opts {
		opt(s)
	}

	hint := ""
	if cfg.Page.CredentialHint {
		hint = auth.CredentialHint(cfg.Username, cfg.Password)
	}
	s.gate = auth.NewGate(s.authn, hint)
	s.sessions = session.NewManager(st, cfg.Secure, logger)
	s.dashboard = dashboard.New(a, st, dashboard.Options{
		Datasets: cfg.Datasets,
		Delay:    cfg.StepDelay,
	}, logger)
	s.upgrader = websocket.Upgrader{CheckOrigin: sameOrigin}

	s.ui = ui.New(ui.Deps{
		Dashboard: s.dashboard,
		Sessions:  s.sessions,
		Gate:      s.gate,
	}, ui.Config{Page: cfg.Page}, logger)

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
	r.Use(s.sessions.Middleware)

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Login gate
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			if s.config.Page.LoginGate {
				r.Use(s.requireLogin)
			}

			// Example datasets
			r.Get("/datasets", s.handleListDatasets)
			r.Get("/datasets/{label}", s.handleGetDataset)

			// Runs
			r.Route("/runs", func(r chi.Router) {
				r.Post("/", s.handleCreateRun)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRun)
					r.Get("/results", s.handleGetResults)
				})
			})

			// Progress streams
			r.Get("/sse/runs/{id}", s.handleSSERun)
			r.Get("/ws/runs/{id}", s.handleWSRun)

			// Synthetic signals
			r.Get("/signals", s.handleListSignals)
			r.Get("/signals/{label}", s.handleGetSignals)
		})
	})
}
