package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/me/neurolens/internal/signal"
	"github.com/me/neurolens/pkg/model"
)

// GET /api/v1/signals
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), signal.Labels())
}

// handleGetSignals returns the synthetic series of a label. ?fig=1,3
// restricts the series to the listed figures.
// GET /api/v1/signals/{label}
func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	label := model.DatasetLabel(chi.URLParam(r, "label"))

	set, err := signal.Generate(label)
	if errors.Is(err, signal.ErrUnknownLabel) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("signal label", label.String()))
		return
	}
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	if figs := r.URL.Query().Get("fig"); figs != "" {
		var keep []signal.Series
		for _, f := range strings.Split(figs, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid figure number",
					model.FieldError{Field: "fig", Message: f}))
				return
			}
			ser, ok := set.Figure(n)
			if !ok {
				respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("figure out of range",
					model.FieldError{Field: "fig", Message: f}))
				return
			}
			keep = append(keep, ser)
		}
		set.Series = keep
	}
	respondOK(w, reqID, set)
}
