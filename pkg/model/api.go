package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// LoginRequest is the body of POST /api/v1/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the explicit outcome of a credential submission.
type LoginResult struct {
	Authenticated bool     `json:"authenticated"`
	Attempts      int      `json:"attempts"`
	Banners       []Banner `json:"banners,omitempty"`
}

// ProgressEvent is one step of the processing loop as sent to clients.
type ProgressEvent struct {
	RunID   string `json:"run_id"`
	Percent int    `json:"percent"`
	Text    string `json:"text"`
}
