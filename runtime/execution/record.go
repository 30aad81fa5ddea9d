package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/model/graph"
)

// Arrival is a predecessor signal received by a join step.
type Arrival[S any] struct {
	Ref   graph.Ref
	State S
}

// StepRecord tracks one step within a run.
type StepRecord[S any] struct {
	Name        string
	State       StepState
	Fired       bool
	Arrivals    []Arrival[S]
	Output      S
	Route       string
	Error       string
	Attempts    int
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// StepSummary is a serialisable view of a StepRecord.
type StepSummary struct {
	Name     string        `json:"name" yaml:"name"`
	State    StepState     `json:"state" yaml:"state"`
	Route    string        `json:"route,omitempty" yaml:"route,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts int           `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Record is the bookkeeping of a single run: per-step state, join arrivals,
// completion order and faults. It is safe for concurrent use.
type Record[S any] struct {
	RunID     string
	Flow      string
	StartedAt time.Time
	steps     map[string]*StepRecord[S]
	names     []string
	order     []string
	faults    map[string]string
	mu        sync.RWMutex
}

// NewRecord creates a record with every step pending
func NewRecord[S any](runID, flow string, names []string) *Record[S] {
	ret := &Record[S]{
		RunID:     runID,
		Flow:      flow,
		StartedAt: clock.Now(),
		steps:     make(map[string]*StepRecord[S], len(names)),
		names:     append([]string(nil), names...),
		faults:    map[string]string{},
	}
	for _, name := range names {
		ret.steps[name] = &StepRecord[S]{Name: name, State: StepStatePending}
	}
	return ret
}

func (r *Record[S]) step(name string) (*StepRecord[S], error) {
	ret, ok := r.steps[name]
	if !ok {
		return nil, fmt.Errorf("unknown step %v", name)
	}
	return ret, nil
}

func (r *Record[S]) transition(step *StepRecord[S], to StepState) error {
	if !step.State.CanTransition(to) {
		return fmt.Errorf("step %v: invalid transition %v -> %v", step.Name, step.State, to)
	}
	step.State = to
	return nil
}

// Arrive records a predecessor signal for a join and returns the number of
// distinct signals received so far.
func (r *Record[S]) Arrive(name string, ref graph.Ref, state S) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, err := r.step(name)
	if err != nil {
		return 0, err
	}
	for _, arrival := range step.Arrivals {
		if arrival.Ref == ref {
			return len(step.Arrivals), nil
		}
	}
	step.Arrivals = append(step.Arrivals, Arrival[S]{Ref: ref, State: state})
	return len(step.Arrivals), nil
}

// Arrivals returns join arrivals in completion order
func (r *Record[S]) Arrivals(name string) []Arrival[S] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if step, ok := r.steps[name]; ok {
		return append([]Arrival[S](nil), step.Arrivals...)
	}
	return nil
}

// Fire marks step as ready. It returns false when the step already fired,
// which makes join firing idempotent.
func (r *Record[S]) Fire(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, err := r.step(name)
	if err != nil {
		return false, err
	}
	if step.Fired {
		return false, nil
	}
	if err = r.transition(step, StepStateReady); err != nil {
		return false, err
	}
	step.Fired = true
	return true, nil
}

// Start marks step as running
func (r *Record[S]) Start(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, err := r.step(name)
	if err != nil {
		return err
	}
	if err = r.transition(step, StepStateRunning); err != nil {
		return err
	}
	now := clock.Now()
	step.StartedAt = &now
	return nil
}

// Finish applies a finished activation to the record.
func (r *Record[S]) Finish(activation *Activation[S]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, err := r.step(activation.Step)
	if err != nil {
		return err
	}
	if err = r.transition(step, activation.State); err != nil {
		return err
	}
	step.Output = activation.Output
	step.Route = activation.Route
	step.Attempts = activation.Attempts
	step.CompletedAt = activation.CompletedAt
	if activation.StartedAt != nil {
		step.StartedAt = activation.StartedAt
	}
	if activation.State == StepStateFailed {
		step.Error = activation.Error
		r.faults[step.Name] = activation.Error
	}
	r.order = append(r.order, step.Name)
	return nil
}

// State returns the state of step
func (r *Record[S]) State(name string) StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if step, ok := r.steps[name]; ok {
		return step.State
	}
	return ""
}

// Output returns the output of a finished step
func (r *Record[S]) Output(name string) (S, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[name]
	if !ok || !step.State.IsTerminal() {
		var zero S
		return zero, false
	}
	return step.Output, true
}

// Order returns finished step names in completion order
func (r *Record[S]) Order() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Faults returns a copy of step errors recorded so far
func (r *Record[S]) Faults() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make(map[string]string, len(r.faults))
	for k, v := range r.faults {
		ret[k] = v
	}
	return ret
}

// Summaries returns a view of every step in declaration order
func (r *Record[S]) Summaries() []StepSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]StepSummary, 0, len(r.names))
	for _, name := range r.names {
		step := r.steps[name]
		summary := StepSummary{Name: name, State: step.State, Route: step.Route, Error: step.Error, Attempts: step.Attempts}
		if step.StartedAt != nil && step.CompletedAt != nil {
			summary.Duration = step.CompletedAt.Sub(*step.StartedAt)
		}
		ret = append(ret, summary)
	}
	return ret
}

// Run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusDegraded  = "degraded"
)

// RunSummary is the persisted view of a finished run.
type RunSummary struct {
	ID        string            `json:"id" yaml:"id"`
	Flow      string            `json:"flow" yaml:"flow"`
	Status    string            `json:"status" yaml:"status"`
	StartedAt time.Time         `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration     `json:"duration" yaml:"duration"`
	Trail     []string          `json:"trail,omitempty" yaml:"trail,omitempty"`
	Faults    map[string]string `json:"faults,omitempty" yaml:"faults,omitempty"`
	Steps     []StepSummary     `json:"steps,omitempty" yaml:"steps,omitempty"`
}
