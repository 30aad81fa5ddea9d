package graph

import (
	"context"
	"time"
)

type (
	// Handler transforms a state snapshot into a replacement state.
	Handler[S any] func(ctx context.Context, in S) (S, error)

	// Route selects the label of the branch that should receive the state.
	Route[S any] func(ctx context.Context, in S) (string, error)

	// Merge folds AND-join arrivals, ordered by predecessor completion, into
	// the join's input.
	Merge[S any] func(ctx context.Context, arrivals []S) (S, error)

	// Fallback produces the substitute output of a failed step.
	Fallback[S any] func(in S, err error) S

	// Step is a single node of a workflow graph. Exactly one of Handler or
	// Router is set. A nil Trigger marks the start step.
	Step[S any] struct {
		Name          string
		Description   string
		Handler       Handler[S]
		Router        Route[S]
		Trigger       *Trigger
		Merge         Merge[S]
		Fallback      Fallback[S]
		FallbackRoute string
		Timeout       time.Duration
		Retry         *Retry
	}

	// Retry strategy for a step callback
	Retry struct {
		MaxRetries int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
		Delay      time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
		Multiplier float64       `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	}
)

// Start creates the entry step of a graph.
func Start[S any](name string, handler Handler[S]) *Step[S] {
	return &Step[S]{Name: name, Handler: handler}
}

// NewStep creates a step fired by trigger.
func NewStep[S any](name string, handler Handler[S], trigger *Trigger) *Step[S] {
	return &Step[S]{Name: name, Handler: handler, Trigger: trigger}
}

// NewRouter creates a router step fired by trigger.
func NewRouter[S any](name string, route Route[S], trigger *Trigger) *Step[S] {
	return &Step[S]{Name: name, Router: route, Trigger: trigger}
}

// WithDescription sets the step description
func (s *Step[S]) WithDescription(description string) *Step[S] {
	s.Description = description
	return s
}

// WithMerge sets the AND-join merge function
func (s *Step[S]) WithMerge(merge Merge[S]) *Step[S] {
	s.Merge = merge
	return s
}

// WithFallback sets the substitute output used when the step fails in degrade mode
func (s *Step[S]) WithFallback(fallback Fallback[S]) *Step[S] {
	s.Fallback = fallback
	return s
}

// WithFallbackRoute sets the label a failed router falls back to in degrade mode
func (s *Step[S]) WithFallbackRoute(label string) *Step[S] {
	s.FallbackRoute = label
	return s
}

// WithTimeout sets the callback deadline
func (s *Step[S]) WithTimeout(timeout time.Duration) *Step[S] {
	s.Timeout = timeout
	return s
}

// WithRetry sets the callback retry strategy
func (s *Step[S]) WithRetry(retry *Retry) *Step[S] {
	s.Retry = retry
	return s
}

// IsStart returns true for the entry step
func (s *Step[S]) IsStart() bool {
	return s.Trigger == nil
}

// IsRouter returns true when the step selects a route rather than producing state
func (s *Step[S]) IsRouter() bool {
	return s.Router != nil
}

// Node returns a serialisable description of the step.
func (s *Step[S]) Node() *Node {
	ret := &Node{Name: s.Name, Description: s.Description, Router: s.IsRouter()}
	if s.Trigger != nil {
		ret.Kind = s.Trigger.Kind
		ret.On = append([]Ref(nil), s.Trigger.On...)
	}
	return ret
}

// Node is a serialisable description of a step.
type Node struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	On          []Ref  `json:"on,omitempty" yaml:"on,omitempty"`
	Router      bool   `json:"router,omitempty" yaml:"router,omitempty"`
}

// Backoff returns the delay before the given retry attempt (1-based).
func (r *Retry) Backoff(attempt int) time.Duration {
	if r == nil || r.Delay <= 0 {
		return 0
	}
	delay := float64(r.Delay)
	if r.Multiplier > 1 {
		for i := 1; i < attempt; i++ {
			delay *= r.Multiplier
		}
	}
	return time.Duration(delay)
}
