package server

import (
	"encoding/json"
	"net/http"

	"github.com/me/neurolens/internal/auth"
	"github.com/me/neurolens/internal/session"
	"github.com/me/neurolens/pkg/model"
)

// handleLogin applies a credential submission to the session.
// POST /api/v1/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON: "+err.Error()))
		return
	}

	sess := session.FromContext(r.Context())
	res := s.gate.Login(sess, req.Username, req.Password)
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.logger.Error("save session", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	result := model.LoginResult{Authenticated: res.Authenticated, Attempts: res.Attempts, Banners: res.Banners}
	if !res.Authenticated {
		s.logger.Warn("login failed", "username", req.Username, "attempts", res.Attempts)
		respondJSON(w, http.StatusUnauthorized, reqID, result, model.NewUnauthorizedError(auth.InvalidCredentials))
		return
	}
	s.logger.Info("login succeeded", "username", req.Username, "attempts", res.Attempts)
	respondOK(w, reqID, result)
}

// handleLogout resets the session to logged out.
// POST /api/v1/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	sess := session.FromContext(r.Context())
	s.gate.Logout(sess)
	if sess.ID != "" {
		if err := s.sessions.Save(r.Context(), w, sess); err != nil {
			s.logger.Error("save session", "error", err)
			respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
			return
		}
	}
	respondOK(w, reqID, model.LoginResult{Authenticated: false, Attempts: sess.Attempts})
}
