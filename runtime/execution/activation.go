package execution

import (
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/internal/idgen"
)

// Activation is a single execution of a step within a run. It travels from
// the scheduler to a worker and back.
type Activation[S any] struct {
	ID          string     `json:"id"`
	RunID       string     `json:"runId"`
	Step        string     `json:"step"`
	State       StepState  `json:"state"`
	Input       S          `json:"input"`
	Output      S          `json:"output"`
	Route       string     `json:"route,omitempty"`
	Error       string     `json:"error,omitempty"`
	Err         error      `json:"-"`
	Attempts    int        `json:"attempts,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewActivation creates a ready activation of step
func NewActivation[S any](runID, step string, input S) *Activation[S] {
	return &Activation[S]{
		ID:          idgen.Activation(runID, step),
		RunID:       runID,
		Step:        step,
		State:       StepStateReady,
		Input:       input,
		ScheduledAt: clock.Now(),
	}
}

// Start marks the activation as running
func (a *Activation[S]) Start() {
	now := clock.Now()
	a.StartedAt = &now
	a.State = StepStateRunning
}

// Complete marks the activation as completed with output
func (a *Activation[S]) Complete(output S) {
	now := clock.Now()
	a.CompletedAt = &now
	a.Output = output
	a.State = StepStateCompleted
}

// Routed marks a router activation as completed with the selected label
func (a *Activation[S]) Routed(label string) {
	now := clock.Now()
	a.CompletedAt = &now
	a.Output = a.Input
	a.Route = label
	a.State = StepStateCompleted
}

// Fail marks the activation as failed
func (a *Activation[S]) Fail(err error) {
	now := clock.Now()
	a.CompletedAt = &now
	a.Err = err
	if err != nil {
		a.Error = err.Error()
	}
	a.State = StepStateFailed
}

// Elapsed returns the callback duration
func (a *Activation[S]) Elapsed() time.Duration {
	if a.StartedAt == nil || a.CompletedAt == nil {
		return 0
	}
	return a.CompletedAt.Sub(*a.StartedAt)
}
