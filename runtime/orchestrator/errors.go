package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGraphDefinition matches every GraphDefinitionError via errors.Is.
var ErrGraphDefinition = errors.New("invalid workflow graph")

// Graph definition issue reasons
const (
	ReasonEmpty            = "graph has no steps"
	ReasonNilStep          = "nil step"
	ReasonUnnamed          = "step has no name"
	ReasonDuplicate        = "duplicate step name"
	ReasonNoCallback       = "step has no callback"
	ReasonBothCallbacks    = "step has both a handler and a router"
	ReasonNoStart          = "graph has no start step"
	ReasonManyStarts       = "graph has more than one start step"
	ReasonUnknownKind      = "unknown trigger kind"
	ReasonUnknownRef       = "references an undefined step"
	ReasonLabelOnStep      = "route label used on a non-router step"
	ReasonUnlabelledRouter = "router referenced without a route label"
	ReasonSingleArity      = "single trigger requires exactly one predecessor"
	ReasonEmptyOr          = "or-join requires at least one predecessor"
	ReasonDuplicateRef     = "predecessor listed more than once"
	ReasonDegenerateAnd    = "and-join requires at least two distinct predecessors"
	ReasonExclusiveAnd     = "and-join waits on mutually exclusive routes of one router"
	ReasonMergeNotAnd      = "merge function set on a step that is not an and-join"
	ReasonNoRoutes         = "router has no registered routes"
	ReasonFallbackRoute    = "fallback route is not registered"
	ReasonCycle            = "cycle detected"
	ReasonSchemaType       = "schema does not match the state type"
	ReasonTerminalMerge    = "terminal merge does not match the state type"
)

// Issue is a single graph definition problem.
type Issue struct {
	Step   string
	Reason string
	Detail string
}

func (i Issue) String() string {
	ret := i.Reason
	if i.Step != "" {
		ret = "step " + i.Step + ": " + ret
	}
	if i.Detail != "" {
		ret += " (" + i.Detail + ")"
	}
	return ret
}

// GraphDefinitionError is returned by Build and lists every issue found.
type GraphDefinitionError struct {
	Flow   string
	Issues []Issue
}

func (e *GraphDefinitionError) add(step, reason, detail string) {
	e.Issues = append(e.Issues, Issue{Step: step, Reason: reason, Detail: detail})
}

// Has returns true when an issue with reason was reported.
func (e *GraphDefinitionError) Has(reason string) bool {
	for _, issue := range e.Issues {
		if issue.Reason == reason {
			return true
		}
	}
	return false
}

func (e *GraphDefinitionError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("%v %q: %s", ErrGraphDefinition, e.Flow, strings.Join(parts, "; "))
}

// Is reports ErrGraphDefinition.
func (e *GraphDefinitionError) Is(target error) bool {
	return target == ErrGraphDefinition
}

// UnknownRouteError is returned when a router selects a label no step is
// registered under. It aborts the run.
type UnknownRouteError struct {
	Router string
	Label  string
	Known  []string
}

func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("router %v returned unknown route %q, known: %v", e.Router, e.Label, strings.Join(e.Known, ", "))
}

// StepExecutionFailure wraps an error (or recovered panic) raised by a step
// callback.
type StepExecutionFailure struct {
	Step     string
	Attempts int
	Err      error
}

func (e *StepExecutionFailure) Error() string {
	return fmt.Sprintf("step %v failed: %v", e.Step, e.Err)
}

func (e *StepExecutionFailure) Unwrap() error { return e.Err }

// StateValidationError is returned when a state fails schema validation. It
// is always fatal. Step is empty for the initial state.
type StateValidationError struct {
	Step string
	Err  error
}

func (e *StateValidationError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("invalid initial state: %v", e.Err)
	}
	return fmt.Sprintf("step %v produced invalid state: %v", e.Step, e.Err)
}

func (e *StateValidationError) Unwrap() error { return e.Err }
