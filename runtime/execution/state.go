package execution

// StepState represents the lifecycle state of a step instance within a run.
type StepState string

const (
	StepStatePending   StepState = "pending"
	StepStateReady     StepState = "ready"
	StepStateRunning   StepState = "running"
	StepStateCompleted StepState = "completed"
	StepStateFailed    StepState = "failed"
)

var transitions = map[StepState][]StepState{
	StepStatePending: {StepStateReady},
	StepStateReady:   {StepStateRunning},
	StepStateRunning: {StepStateCompleted, StepStateFailed},
}

// IsTerminal returns true for completed and failed states
func (s StepState) IsTerminal() bool {
	return s == StepStateCompleted || s == StepStateFailed
}

// CanTransition returns true when the state machine allows s -> to
func (s StepState) CanTransition(to StepState) bool {
	for _, candidate := range transitions[s] {
		if candidate == to {
			return true
		}
	}
	return false
}
