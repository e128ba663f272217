package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/me/neurolens/internal/dashboard"
	"github.com/me/neurolens/internal/progress"
	"github.com/me/neurolens/pkg/model"
)

// completeEvent closes a progress stream.
type completeEvent struct {
	Run     *model.Run            `json:"run"`
	Text    string                `json:"text"`
	Results *dashboard.ResultView `json:"results"`
}

// handleSSERun processes a run and streams every progress step via
// Server-Sent Events. Disconnecting stops the loop and fails the run.
// GET /api/v1/sse/runs/{id}
func (s *Server) handleSSERun(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	run, ok := s.lookupRun(w, r)
	if !ok || !s.start(w, r, run) {
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if err := sendSSEEvent(w, flusher, "init", run); err != nil {
		s.logger.Debug("sse client disconnected", "id", run.ID, "error", err)
		s.dashboard.Fail(r.Context(), run)
		return
	}

	run, err := s.dashboard.Drive(r.Context(), run, func(u progress.Update) error {
		return sendSSEEvent(w, flusher, "progress", model.ProgressEvent{RunID: run.ID, Percent: u.Percent, Text: u.Text})
	})
	if err != nil {
		s.logger.Debug("sse stream ended", "id", run.ID, "state", run.State, "error", err)
		return
	}

	view, err := s.dashboard.Results(r.Context())
	if err != nil {
		s.logger.Error("results", "run_id", run.ID, "error", err)
		if err := sendSSEEvent(w, flusher, "error", model.NewInternalError(err.Error())); err != nil {
			s.logger.Debug("sse client disconnected", "id", run.ID, "error", err)
		}
		return
	}
	if err := sendSSEEvent(w, flusher, "complete", completeEvent{Run: run, Text: progress.CompleteText, Results: view}); err != nil {
		s.logger.Debug("sse client disconnected", "id", run.ID, "error", err)
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
