package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/me/neurolens/pkg/model"
)

// requestID generates a short request identifier: "req_" plus eight hex digits.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, apiErr)
}

// respondConflict writes a 409 for a run whose state does not allow the request.
func respondConflict(w http.ResponseWriter, reqID, msg string) {
	respondError(w, reqID, http.StatusConflict, model.NewConflictError(msg))
}

// respondJSON encodes the envelope. Status is "error" exactly when apiErr is set.
func respondJSON(w http.ResponseWriter, status int, reqID string, data any, apiErr *model.APIError) {
	state := "ok"
	if apiErr != nil {
		state = "error"
	}
	resp := model.Response{
		Status:    state,
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Error:     apiErr,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
