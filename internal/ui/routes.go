package ui

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router. The router
// must already run the session middleware.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Public routes (no auth required).
	r.Get("/assets/*", ui.HandleAsset)
	if ui.page.LoginGate {
		r.Get("/login", ui.HandleLogin)
		r.Post("/login", ui.HandleLoginPost)
		if ui.page.Logout {
			r.Get("/logout", ui.HandleLogout)
		}
	}

	// Gated routes.
	r.Group(func(r chi.Router) {
		if ui.page.LoginGate {
			r.Use(ui.requireLogin)
		}

		r.Get("/", ui.HandleIndex)
		r.Post("/upload", ui.HandleUpload)

		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", ui.HandleRun)
			r.Post("/process", ui.HandleProcess)
			r.Get("/results", ui.HandleResults)
		})

		if ui.page.SyntheticExplorer {
			r.Get("/signals", ui.HandleSignals)
			r.Get("/signals/{label}/{fig}.png", ui.HandleSignalPlot)
		}
	})
}
