package model

import "time"

// Run is one accepted upload and its simulated processing.
type Run struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"-"`
	FileName    string     `json:"file_name"`
	Extension   string     `json:"extension"`
	State       RunState   `json:"state"`
	Progress    int        `json:"progress"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Start moves the run into RUNNING with progress reset to 0.
func (r *Run) Start(now time.Time) error {
	if !r.State.CanTransitionTo(RunStateRunning) {
		return &InvalidTransitionError{Entity: "Run", ID: r.ID, From: string(r.State), To: string(RunStateRunning)}
	}
	r.State = RunStateRunning
	r.Progress = 0
	r.StartedAt = &now
	r.CompletedAt = nil
	return nil
}

// Finish moves a RUNNING run into COMPLETED or FAILED.
func (r *Run) Finish(state RunState, now time.Time) error {
	if !r.State.CanTransitionTo(state) || state == RunStateRunning {
		return &InvalidTransitionError{Entity: "Run", ID: r.ID, From: string(r.State), To: string(state)}
	}
	r.State = state
	r.CompletedAt = &now
	return nil
}
