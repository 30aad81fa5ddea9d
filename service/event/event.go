package event

import (
	"time"

	"github.com/viant/crewflow/internal/clock"
)

// Context identifies the origin of an event
type Context struct {
	RunID       string `json:"runID"`
	Flow        string `json:"flow"`
	Step        string `json:"step"`
	EventType   string `json:"eventType"`
	TimeTakenMs int    `json:"timeTakenMs,omitempty"`
}

// Event is a typed notification
type Event[T any] struct {
	Context   *Context       `json:"context"`
	CreatedAt time.Time      `json:"createdAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Data      T              `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]any),
		Data:      data,
	}
}
