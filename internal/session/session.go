// Package session keeps the per-browser login state in the store and
// carries it through the request context.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/me/neurolens/internal/store"
	"github.com/me/neurolens/pkg/model"
)

// CookieName is the name of the session cookie.
const CookieName = "neurolens_session"

type contextKey string

const sessionContextKey contextKey = "session"

// Manager loads and saves sessions.
type Manager struct {
	store  store.Store
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a session manager. secure marks the cookie Secure.
func NewManager(st store.Store, secure bool, logger *slog.Logger) *Manager {
	return &Manager{
		store:  st,
		secure: secure,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// FromContext retrieves the session attached by Middleware.
func FromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// Load returns the session named by the request cookie. A request without
// a cookie, or with an unknown one, gets a fresh logged-out session that
// is not persisted until Save.
func (m *Manager) Load(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return &model.Session{}, nil
	}
	sess, err := m.store.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return &model.Session{}, nil
	}
	return sess, nil
}

// Save persists sess. A session without an ID is created and its cookie
// set on w.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *model.Session) error {
	now := m.now().UTC()
	sess.UpdatedAt = now
	if sess.ID != "" {
		if err := m.store.UpdateSession(ctx, sess); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return nil
	}

	id, err := generateSessionID()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}
	sess.ID = id
	sess.CreatedAt = now
	if err := m.store.CreateSession(ctx, sess); err != nil {
		sess.ID = ""
		return fmt.Errorf("store session: %w", err)
	}
	m.logger.Debug("session created", "session_id", id)
	m.SetCookie(w, sess)
	return nil
}

// Middleware attaches the request's session to its context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(r)
		if err != nil {
			m.logger.Error("session lookup failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// SetCookie sets the session cookie. It has no Expires, so it lasts for
// the browser session.
func (m *Manager) SetCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
