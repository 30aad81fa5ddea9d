package orchestrator

import (
	"context"

	"github.com/viant/crewflow/model/graph"
	"github.com/viant/crewflow/model/state"
)

type testState struct {
	Topic  string         `json:"topic" jsonschema:"required" validate:"required"`
	Values map[string]int `json:"values,omitempty"`
	Log    []string       `json:"log,omitempty"`
	state.Journal
}

func (s testState) Clone() testState {
	s.Values = state.CloneMap(s.Values)
	s.Log = append([]string(nil), s.Log...)
	return s
}

func visit(name string) graph.Handler[testState] {
	return func(ctx context.Context, in testState) (testState, error) {
		in.Log = append(in.Log, name)
		return in, nil
	}
}

func routeByTopic(ctx context.Context, in testState) (string, error) {
	return in.Topic, nil
}
