package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/neurolens/internal/dashboard"
	"github.com/me/neurolens/pkg/model"
)

type datasetInfo struct {
	Label model.DatasetLabel `json:"label"`
	Dir   string             `json:"dir"`
}

// GET /api/v1/datasets
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	out := []datasetInfo{}
	for _, label := range s.dashboard.Datasets() {
		out = append(out, datasetInfo{Label: label, Dir: s.config.Datasets[label.String()]})
	}
	respondOK(w, reqID, out)
}

// GET /api/v1/datasets/{label}
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	label := model.DatasetLabel(chi.URLParam(r, "label"))

	view, err := s.dashboard.Browse(r.Context(), label)
	if errors.Is(err, dashboard.ErrUnknownDataset) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("dataset", label.String()))
		return
	}
	if err != nil {
		s.logger.Error("browse dataset", "label", label, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, view)
}
