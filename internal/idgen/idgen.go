// Package idgen generates run and activation identifiers.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Activation returns an identifier of a single step activation within a run.
func Activation(runID, step string) string {
	return fmt.Sprintf("%s-%s-%s", runID, step, New())
}
