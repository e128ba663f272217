package model

import "testing"

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "run 'run_123' not found"}
	want := "NOT_FOUND: run 'run_123' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("dataset", "EEG9")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "dataset 'EEG9' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "dataset 'EEG9' not found")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("Invalid upload",
		FieldError{Field: "file", Message: "required"},
		FieldError{Field: "file", Message: "unsupported extension"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
}

func TestNewUnauthorizedAndInternal(t *testing.T) {
	if got := NewUnauthorizedError("login required").Code; got != ErrUnauthorized {
		t.Errorf("Code = %q, want %q", got, ErrUnauthorized)
	}
	if got := NewInternalError("boom").Code; got != ErrInternal {
		t.Errorf("Code = %q, want %q", got, ErrInternal)
	}
	if got := NewConflictError("busy").Code; got != ErrConflict {
		t.Errorf("Code = %q, want %q", got, ErrConflict)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{
		Entity: "Run",
		ID:     "run_123",
		From:   "UPLOADED",
		To:     "COMPLETED",
	}
	want := "invalid Run state transition: UPLOADED → COMPLETED (entity run_123)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
