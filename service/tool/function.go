package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/crewflow/model/schema"
)

// Function is a typed tool; its argument schema is reflected from In
type Function[In any] struct {
	name        string
	description string
	schema      map[string]any
	fn          func(ctx context.Context, in *In) (string, error)
}

// New creates a typed tool
func New[In any](name, description string, fn func(ctx context.Context, in *In) (string, error)) (*Function[In], error) {
	if name == "" {
		return nil, fmt.Errorf("tool name was empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %v has no function", name)
	}
	doc, err := schema.Of[In]()
	if err != nil {
		return nil, fmt.Errorf("failed to reflect arguments of tool %v: %w", name, err)
	}
	return &Function[In]{name: name, description: description, schema: doc, fn: fn}, nil
}

// Name returns the tool name
func (f *Function[In]) Name() string { return f.name }

// Description returns the tool description
func (f *Function[In]) Description() string { return f.description }

// Schema returns the JSON schema of the arguments
func (f *Function[In]) Schema() map[string]any { return f.schema }

// Call validates args against the schema, decodes them and calls the function
func (f *Function[In]) Call(ctx context.Context, args json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}
	var document any
	if err := json.Unmarshal(args, &document); err != nil {
		return "", &ArgumentError{Tool: f.name, Err: err}
	}
	if err := schema.Validate(f.schema, document); err != nil {
		return "", &ArgumentError{Tool: f.name, Err: err}
	}
	in := new(In)
	if err := json.Unmarshal(args, in); err != nil {
		return "", &ArgumentError{Tool: f.name, Err: err}
	}
	return f.fn(ctx, in)
}
