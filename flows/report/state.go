package report

import "github.com/viant/crewflow/model/state"

// DefaultTopic replaces an empty topic
const DefaultTopic = "[topic not specified]"

// State is the report flow state
type State struct {
	Topic         string         `json:"topic" yaml:"topic" jsonschema:"required,description=main topic processed by the flow"`
	ExternalInfo1 string         `json:"external_info_1,omitempty" yaml:"external_info_1,omitempty"`
	ExternalInfo2 string         `json:"external_info_2,omitempty" yaml:"external_info_2,omitempty"`
	ExternalInfo3 string         `json:"external_info_3,omitempty" yaml:"external_info_3,omitempty"`
	CrewResult    map[string]any `json:"crew_result,omitempty" yaml:"crew_result,omitempty"`
	FinalReport   string         `json:"final_report,omitempty" yaml:"final_report,omitempty"`
	state.Journal `yaml:",inline"`
}

// Clone returns a copy safe to hand to a concurrently running step
func (s State) Clone() State {
	s.CrewResult = state.CloneMap(s.CrewResult)
	s.Journal = s.Journal.With(s.Trail, s.Faults)
	return s
}
