package model

import "time"

// Session is the per-browser authentication state.
// It has no expiry; the cookie that carries its ID lives for the browser session.
type Session struct {
	ID        string    `json:"id"`
	LoggedIn  bool      `json:"logged_in"`
	Username  string    `json:"username,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAuthenticated reports whether the session is in the logged-in state.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.LoggedIn
}
