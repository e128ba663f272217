// Package auth holds the demo login gate: a credential check and the
// two-state machine it drives.
package auth

import (
	"crypto/subtle"

	"github.com/me/neurolens/pkg/model"
)

// Authenticator decides whether a username/password pair is valid.
type Authenticator interface {
	Verify(username, password string) bool
}

// Static accepts exactly one configured pair. Comparison is case-sensitive
// and the inputs are not trimmed.
type Static struct {
	Username string
	Password string
}

// NewStatic returns an authenticator for the given pair.
func NewStatic(username, password string) *Static {
	return &Static{Username: username, Password: password}
}

// Verify compares both fields in constant time.
func (s *Static) Verify(username, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	return userMatch && passMatch
}

// Messages shown after a login attempt.
const (
	InvalidCredentials = "Invalid username or password. Please try again."
	LoginRequired      = "You must login first to access this page."
)

// Result is the outcome of one login submission. Authenticated reports
// whether this submission was accepted, not the session state.
type Result struct {
	Authenticated bool
	Attempts      int
	Banners       []model.Banner
}

// Gate applies login submissions to a session.
type Gate struct {
	auth Authenticator
	// Hint, when set, is shown after a failed attempt.
	Hint string
}

// NewGate returns a gate over auth. hint may be empty.
func NewGate(auth Authenticator, hint string) *Gate {
	return &Gate{auth: auth, Hint: hint}
}

// CredentialHint formats the demo credential hint.
func CredentialHint(username, password string) string {
	return "Correct demo credentials are: " + username + " / " + password
}

// Login counts the attempt and moves sess to LoggedIn on a valid pair.
// A failed attempt leaves the state unchanged, so a session that is
// already logged in stays logged in.
func (g *Gate) Login(sess *model.Session, username, password string) Result {
	sess.Attempts++
	ok := g.auth.Verify(username, password)
	if ok {
		sess.LoggedIn = true
		sess.Username = username
		return Result{Authenticated: true, Attempts: sess.Attempts}
	}

	res := Result{
		Attempts: sess.Attempts,
		Banners:  []model.Banner{model.Error(InvalidCredentials)},
	}
	if g.Hint != "" {
		res.Banners = append(res.Banners, model.Info(g.Hint))
	}
	return res
}

// Logout resets sess to LoggedOut. The attempt counter is kept.
func (g *Gate) Logout(sess *model.Session) {
	sess.LoggedIn = false
	sess.Username = ""
}
