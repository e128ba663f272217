package model

// RunState represents the lifecycle state of a processing Run.
type RunState string

const (
	RunStateUploaded  RunState = "UPLOADED"
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateFailed    RunState = "FAILED"
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true if the run is not currently processing.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateFailed:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed state transitions for Runs.
// Finished runs may be processed again.
var ValidRunTransitions = map[RunState][]RunState{
	RunStateUploaded:  {RunStateRunning},
	RunStateRunning:   {RunStateCompleted, RunStateFailed},
	RunStateCompleted: {RunStateRunning},
	RunStateFailed:    {RunStateRunning},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
