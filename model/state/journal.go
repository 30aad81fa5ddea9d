package state

import "sort"

// Journal is the run bookkeeping carried inside a workflow state. Embed it in
// a state struct and the orchestrator keeps it current: Trail lists completed
// steps in completion order and Faults maps degraded steps to their error.
type Journal struct {
	Trail  []string          `json:"trail,omitempty" yaml:"trail,omitempty"`
	Faults map[string]string `json:"faults,omitempty" yaml:"faults,omitempty"`
}

// Journaled is implemented by states embedding Journal.
type Journaled interface {
	StateJournal() *Journal
}

// StateJournal returns the journal for in-place replacement.
func (j *Journal) StateJournal() *Journal { return j }

// JournalOf returns the journal of a state pointer, if it has one.
func JournalOf(ptr any) (*Journal, bool) {
	if j, ok := ptr.(Journaled); ok {
		return j.StateJournal(), true
	}
	return nil, false
}

// With returns a copy of the journal holding the supplied trail and faults.
// The receiver and the arguments are never aliased by the result.
func (j Journal) With(trail []string, faults map[string]string) Journal {
	ret := Journal{}
	if len(trail) > 0 {
		ret.Trail = append([]string(nil), trail...)
	}
	if len(faults) > 0 {
		ret.Faults = make(map[string]string, len(faults))
		for k, v := range faults {
			ret.Faults[k] = v
		}
	}
	return ret
}

// Visited returns true when step is on the trail.
func (j Journal) Visited(step string) bool {
	for _, candidate := range j.Trail {
		if candidate == step {
			return true
		}
	}
	return false
}

// Fault returns the recorded error of a degraded step.
func (j Journal) Fault(step string) (string, bool) {
	msg, ok := j.Faults[step]
	return msg, ok
}

// Degraded returns names of degraded steps, sorted.
func (j Journal) Degraded() []string {
	ret := make([]string, 0, len(j.Faults))
	for step := range j.Faults {
		ret = append(ret, step)
	}
	sort.Strings(ret)
	return ret
}
