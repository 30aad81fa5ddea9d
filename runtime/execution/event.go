package execution

import "time"

// Step lifecycle event types
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventRouted    = "routed"
	EventDegraded  = "degraded"
	EventFailed    = "failed"
)

// StepEvent describes a step lifecycle change.
type StepEvent struct {
	RunID    string        `json:"runId"`
	Flow     string        `json:"flow"`
	Step     string        `json:"step"`
	Type     string        `json:"type"`
	State    StepState     `json:"state"`
	Route    string        `json:"route,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}
