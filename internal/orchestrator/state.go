package orchestrator

import "reweave/internal/types"

// StepState enumerates the per-step state machine. Completed, Failed and
// Blocked are terminal.
type StepState string

const (
	StatePending    StepState = "pending"
	StateReady      StepState = "ready"
	StateDispatched StepState = "dispatched"
	StateValidating StepState = "validating"
	StateCompleted  StepState = "completed"
	StateFailed     StepState = "failed"
	StateBlocked    StepState = "blocked"
)

func (s StepState) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateBlocked
}

// StepRun is the mutable runtime record for one step. It is owned by the
// run table and mutated only through table methods.
type StepRun struct {
	StepID      string
	State       StepState
	CurrentRole types.Role
	Attempts    map[types.Role]int
	Artifacts   []types.StepArtifact
	LastError   string
}
