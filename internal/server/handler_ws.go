package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/me/neurolens/internal/progress"
	"github.com/me/neurolens/pkg/model"
)

// wsMessage is one JSON frame of the WebSocket progress stream.
type wsMessage struct {
	Type string `json:"type"` // progress, complete or error
	model.ProgressEvent
	Run     *model.Run      `json:"run,omitempty"`
	Results any             `json:"results,omitempty"`
	Error   *model.APIError `json:"error,omitempty"`
}

// sameOrigin allows clients without an Origin header (the CLI) and
// browsers on the serving host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// handleWSRun processes a run and pushes every progress step over a
// WebSocket. The socket closing cancels the loop.
// GET /api/v1/ws/runs/{id}
func (s *Server) handleWSRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok || !s.start(w, r, run) {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "id", run.ID, "error", err)
		s.dashboard.Fail(r.Context(), run)
		return
	}
	defer conn.Close()

	// Hijacked connections are not cancelled by net/http, so the read
	// side watches for the peer going away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	run, err = s.dashboard.Drive(ctx, run, func(u progress.Update) error {
		return conn.WriteJSON(wsMessage{
			Type:          "progress",
			ProgressEvent: model.ProgressEvent{RunID: run.ID, Percent: u.Percent, Text: u.Text},
		})
	})
	if err != nil {
		s.logger.Debug("websocket stream ended", "id", run.ID, "state", run.State, "error", err)
		return
	}

	msg := wsMessage{
		Type:          "complete",
		ProgressEvent: model.ProgressEvent{RunID: run.ID, Percent: run.Progress, Text: progress.CompleteText},
		Run:           run,
	}
	if view, err := s.dashboard.Results(ctx); err != nil {
		s.logger.Error("results", "run_id", run.ID, "error", err)
		msg.Type = "error"
		msg.Error = model.NewInternalError(err.Error())
	} else {
		msg.Results = view
	}
	if err := conn.WriteJSON(msg); err != nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
