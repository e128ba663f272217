package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/neurolens/internal/dashboard"
	"github.com/me/neurolens/internal/session"
	"github.com/me/neurolens/pkg/model"
)

// handleCreateRun accepts an upload and records a run.
// POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	name, err := dashboard.UploadFileName(r)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error(),
			model.FieldError{Field: dashboard.UploadField, Message: err.Error()}))
		return
	}
	if _, err := dashboard.ValidateUpload(name); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error(),
			model.FieldError{Field: dashboard.UploadField, Message: err.Error()}))
		return
	}

	// Runs belong to a stored session, so an anonymous one is persisted here.
	sess := session.FromContext(r.Context())
	if sess.ID == "" {
		if err := s.sessions.Save(r.Context(), w, sess); err != nil {
			s.logger.Error("save session", "error", err)
			respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
			return
		}
	}

	run, err := s.dashboard.Upload(r.Context(), sess.ID, name)
	if err != nil {
		s.logger.Error("create run", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondCreated(w, reqID, run)
}

// GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	respondOK(w, reqID, run)
}

// GET /api/v1/runs/{id}/results
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.State != model.RunStateCompleted {
		respondConflict(w, reqID, fmt.Sprintf("run %s is %s, results are shown once it completes", run.ID, run.State))
		return
	}

	view, err := s.dashboard.Results(r.Context())
	if err != nil {
		s.logger.Error("results", "run_id", run.ID, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, view)
}

// lookupRun resolves {id} for the current session, answering 404 or 500 itself.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.dashboard.Run(r.Context(), session.FromContext(r.Context()).ID, id)
	if errors.Is(err, dashboard.ErrRunNotFound) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
		return nil, false
	}
	if err != nil {
		s.logger.Error("get run", "id", id, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return nil, false
	}
	return run, true
}

// start claims run for processing, answering 409 when another request
// already drives it.
func (s *Server) start(w http.ResponseWriter, r *http.Request, run *model.Run) bool {
	reqID := RequestIDFromContext(r.Context())
	err := s.dashboard.Start(r.Context(), run)
	if err == nil {
		return true
	}
	if errors.Is(err, dashboard.ErrRunActive) {
		respondConflict(w, reqID, fmt.Sprintf("run %s is already %s", run.ID, model.RunStateRunning))
		return false
	}
	s.logger.Error("start run", "id", run.ID, "error", err)
	respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
	return false
}
