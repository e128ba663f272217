// Package ui serves the HTML pages of the dashboard.
package ui

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/me/neurolens/internal/auth"
	"github.com/me/neurolens/internal/config"
	"github.com/me/neurolens/internal/dashboard"
	"github.com/me/neurolens/internal/session"
	"github.com/me/neurolens/pkg/model"
)

// UI handles the web user interface.
type UI struct {
	dashboard *dashboard.Dashboard
	sessions  *session.Manager
	gate      *auth.Gate
	page      config.Page
	logger    *slog.Logger
}

// Deps are the services the pages are built from.
type Deps struct {
	Dashboard *dashboard.Dashboard
	Sessions  *session.Manager
	Gate      *auth.Gate
}

// Config holds UI configuration.
type Config struct {
	Page config.Page // Optional page sections
}

// New creates a new UI handler.
func New(deps Deps, cfg Config, logger *slog.Logger) *UI {
	return &UI{
		dashboard: deps.Dashboard,
		sessions:  deps.Sessions,
		gate:      deps.Gate,
		page:      cfg.Page,
		logger:    logger.With("component", "ui"),
	}
}

// requireLogin renders the blocking login warning for sessions that have
// not logged in. Nothing else is shown.
func (ui *UI) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.IsAuthenticated() {
			ui.render(w, http.StatusUnauthorized, "gate", map[string]any{
				"Title":   "Login required - OpenNeuroLens",
				"Banners": []model.Banner{model.Warning(auth.LoginRequired)},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// base returns the data every page template expects.
func (ui *UI) base(r *http.Request, title string) map[string]any {
	return map[string]any{
		"Title":      title,
		"Session":    session.FromContext(r.Context()),
		"Page":       ui.page,
		"LogoutLink": ui.page.Logout && ui.page.LoginGate,
	}
}

func (ui *UI) render(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderPartial(w http.ResponseWriter, status int, component string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderComponent(&buf, component, data); err != nil {
		ui.logger.Error("template render failed", "component", component, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, message string, err error) {
	ui.logger.Error(message, "error", err)
	ui.render(w, http.StatusInternalServerError, "error", map[string]any{
		"Title":   "Error - OpenNeuroLens",
		"Banners": []model.Banner{model.Error(message)},
	})
}

func (ui *UI) renderNotFound(w http.ResponseWriter, message string) {
	ui.render(w, http.StatusNotFound, "error", map[string]any{
		"Title":   "Not Found - OpenNeuroLens",
		"Banners": []model.Banner{model.Error(message)},
	})
}
