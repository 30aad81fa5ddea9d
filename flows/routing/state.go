package routing

import "github.com/viant/crewflow/model/state"

// Processing types selected by classify
const (
	DeepAnalysis    = "deep_analysis"
	ExtendedSummary = "extended_summary"
	StructuredBrief = "structured_brief"
	QuickNote       = "quick_note"
)

// LongTopicThreshold is the length above which a topic is long
const LongTopicThreshold = 20

// State is the routing flow state
type State struct {
	Topic            string         `json:"topic" yaml:"topic" jsonschema:"required" validate:"required"`
	LongTopic        bool           `json:"long_topic,omitempty" yaml:"long_topic,omitempty"`
	EvenLength       bool           `json:"even_length,omitempty" yaml:"even_length,omitempty"`
	LengthChecked    bool           `json:"length_checked,omitempty" yaml:"length_checked,omitempty"`
	ParityChecked    bool           `json:"parity_checked,omitempty" yaml:"parity_checked,omitempty"`
	TypeOfProcessing string         `json:"type_of_processing,omitempty" yaml:"type_of_processing,omitempty" jsonschema:"enum=deep_analysis,enum=extended_summary,enum=structured_brief,enum=quick_note"`
	Result           string         `json:"result,omitempty" yaml:"result,omitempty"`
	Analysis         map[string]any `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	state.Journal `yaml:",inline"`
}

// Clone returns a copy safe to hand to a concurrently running step
func (s State) Clone() State {
	s.Analysis = state.CloneMap(s.Analysis)
	s.Journal = s.Journal.With(s.Trail, s.Faults)
	return s
}

// Classify returns the processing type for the topic flags
func Classify(longTopic, evenLength bool) string {
	switch {
	case longTopic && evenLength:
		return DeepAnalysis
	case longTopic:
		return ExtendedSummary
	case evenLength:
		return StructuredBrief
	default:
		return QuickNote
	}
}
