package graph

import "strings"

// Kind identifies how a step waits for its predecessors.
type Kind string

const (
	// KindSingle fires once its only predecessor signals.
	KindSingle Kind = "single"
	// KindOr fires at most once, on the first predecessor signal.
	KindOr Kind = "or"
	// KindAnd fires once every predecessor has signalled.
	KindAnd Kind = "and"
)

// Ref is a completion signal of a predecessor. A plain step signals when it
// completes; a router signals (router, label) when it selects label.
type Ref struct {
	Step  string `json:"step" yaml:"step"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Trigger describes the predecessor edges of a step.
type Trigger struct {
	Kind Kind  `json:"kind" yaml:"kind"`
	On   []Ref `json:"on" yaml:"on"`
}

// Done references the completion of step.
func Done(step string) Ref { return Ref{Step: step} }

// Routed references router selecting label.
func Routed(router, label string) Ref { return Ref{Step: router, Label: label} }

// String returns step or router#label.
func (r Ref) String() string {
	if r.Label == "" {
		return r.Step
	}
	return r.Step + "#" + r.Label
}

// IsRoute returns true when the reference targets a router label.
func (r Ref) IsRoute() bool { return r.Label != "" }

// After fires once step completes.
func After(step string) *Trigger {
	return &Trigger{Kind: KindSingle, On: []Ref{Done(step)}}
}

// OnRoute registers the step under label of router.
func OnRoute(router, label string) *Trigger {
	return &Trigger{Kind: KindSingle, On: []Ref{Routed(router, label)}}
}

// AnyOf fires on the first of refs.
func AnyOf(refs ...Ref) *Trigger {
	return &Trigger{Kind: KindOr, On: refs}
}

// AllOf fires once all refs have signalled.
func AllOf(refs ...Ref) *Trigger {
	return &Trigger{Kind: KindAnd, On: refs}
}

// Predecessors returns distinct predecessor step names in declaration order.
func (t *Trigger) Predecessors() []string {
	if t == nil {
		return nil
	}
	var ret []string
	seen := map[string]bool{}
	for _, ref := range t.On {
		if seen[ref.Step] {
			continue
		}
		seen[ref.Step] = true
		ret = append(ret, ref.Step)
	}
	return ret
}

// String returns a compact textual form, e.g. and(a, b).
func (t *Trigger) String() string {
	if t == nil {
		return "start"
	}
	refs := make([]string, 0, len(t.On))
	for _, ref := range t.On {
		refs = append(refs, ref.String())
	}
	return string(t.Kind) + "(" + strings.Join(refs, ", ") + ")"
}
