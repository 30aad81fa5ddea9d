package execution

import (
	"context"
	"reflect"
)

// Run identifies the run a step is executed within.
type Run struct {
	ID   string
	Flow string
	Step string
}

var runKey = KeyOf[*Run]()

// WithRun returns a context carrying run
func WithRun(ctx context.Context, run *Run) context.Context {
	return context.WithValue(ctx, runKey, run)
}

// RunFromContext returns the run carried by ctx, or nil
func RunFromContext(ctx context.Context) *Run {
	return ContextValue[*Run](ctx)
}

// ContextValue returns the value of the provided type from the context
func ContextValue[T any](ctx context.Context) T {
	if value, ok := ctx.Value(KeyOf[T]()).(T); ok {
		return value
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}
