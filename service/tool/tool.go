// Package tool defines the callable tools agents can use.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a named function an agent can call with JSON arguments
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// Call is a tool invocation requested by a model
type Call struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// NotFoundError is returned for an unregistered tool name
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %v not found", e.Name)
}

// ArgumentError is returned when tool arguments do not match its schema
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %v: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }
