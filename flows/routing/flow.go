// Package routing implements the control flow demo: two measuring branches
// join on classify, a router selects one of four processing steps and an
// OR-join finalizes whichever branch ran.
package routing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/crewflow/crews"
	"github.com/viant/crewflow/model/graph"
	"github.com/viant/crewflow/model/state"
	"github.com/viant/crewflow/runtime/orchestrator"
)

// Name is the flow name
const Name = "routing"

// Step names
const (
	StepStart         = "start"
	StepMeasureLength = "measure_length"
	StepMeasureParity = "measure_parity"
	StepClassify      = "classify"
	StepRoute         = "route"
	StepFinalize      = "finalize"
)

// Labels are the router labels, one per processing type
var Labels = []string{DeepAnalysis, ExtendedSummary, StructuredBrief, QuickNote}

var schema = state.MustSchema[State]()

// Schema returns the flow state schema
func Schema() *state.Schema[State] { return schema }

// Flow builds the routing flow steps
type Flow struct {
	deps   *crews.Deps
	logger *slog.Logger
}

// New creates a routing flow; with a model in deps deep_analysis delegates
// to the analysis crew.
func New(deps *crews.Deps) *Flow {
	ret := &Flow{deps: deps, logger: slog.Default()}
	if deps != nil && deps.Logger != nil {
		ret.logger = deps.Logger
	}
	return ret
}

// Steps returns the flow graph
func (f *Flow) Steps() []*graph.Step[State] {
	var finalizeOn []graph.Ref
	for _, label := range Labels {
		finalizeOn = append(finalizeOn, graph.Done(label))
	}
	return []*graph.Step[State]{
		graph.Start(StepStart, f.start),
		graph.NewStep(StepMeasureLength, measureLength, graph.After(StepStart)),
		graph.NewStep(StepMeasureParity, measureParity, graph.After(StepStart)),
		graph.NewStep(StepClassify, classify, graph.AllOf(graph.Done(StepMeasureLength), graph.Done(StepMeasureParity))).
			WithDescription("sets type_of_processing from both measurements").
			WithMerge(mergeMeasurements),
		graph.NewRouter(StepRoute, route, graph.After(StepClassify)),
		graph.NewStep(DeepAnalysis, f.deepAnalysis, graph.OnRoute(StepRoute, DeepAnalysis)).
			WithFallback(func(in State, err error) State {
				in.Result = "Deep analysis unavailable: " + err.Error()
				return in
			}),
		graph.NewStep(ExtendedSummary, summarize("Extended summary of"), graph.OnRoute(StepRoute, ExtendedSummary)),
		graph.NewStep(StructuredBrief, summarize("Structured brief of"), graph.OnRoute(StepRoute, StructuredBrief)),
		graph.NewStep(QuickNote, summarize("Quick note on"), graph.OnRoute(StepRoute, QuickNote)),
		graph.NewStep(StepFinalize, f.finalize, graph.AnyOf(finalizeOn...)),
	}
}

// Build returns the routing flow orchestrator; the state schema is always enforced
func (f *Flow) Build(opts ...orchestrator.Option) (*orchestrator.Orchestrator[State], error) {
	opts = append([]orchestrator.Option{orchestrator.WithSchema(schema)}, opts...)
	return orchestrator.Build(Name, f.Steps(), opts...)
}

func (f *Flow) start(ctx context.Context, in State) (State, error) {
	f.logger.Info("routing flow started", "topic", in.Topic)
	return in, nil
}

func measureLength(ctx context.Context, in State) (State, error) {
	in.LongTopic = len(in.Topic) > LongTopicThreshold
	in.LengthChecked = true
	return in, nil
}

func measureParity(ctx context.Context, in State) (State, error) {
	in.EvenLength = len(in.Topic)%2 == 0
	in.ParityChecked = true
	return in, nil
}

// mergeMeasurements takes each flag from the branch that computed it
func mergeMeasurements(ctx context.Context, arrivals []State) (State, error) {
	ret := arrivals[0]
	for _, arrival := range arrivals[1:] {
		if arrival.LengthChecked {
			ret.LongTopic, ret.LengthChecked = arrival.LongTopic, true
		}
		if arrival.ParityChecked {
			ret.EvenLength, ret.ParityChecked = arrival.EvenLength, true
		}
	}
	return ret, nil
}

func classify(ctx context.Context, in State) (State, error) {
	if !in.LengthChecked || !in.ParityChecked {
		return in, fmt.Errorf("topic measurements incomplete: length %v, parity %v", in.LengthChecked, in.ParityChecked)
	}
	in.TypeOfProcessing = Classify(in.LongTopic, in.EvenLength)
	return in, nil
}

func route(ctx context.Context, in State) (string, error) {
	return in.TypeOfProcessing, nil
}

func summarize(prefix string) graph.Handler[State] {
	return func(ctx context.Context, in State) (State, error) {
		in.Result = fmt.Sprintf("%v '%v'", prefix, in.Topic)
		return in, nil
	}
}

func (f *Flow) deepAnalysis(ctx context.Context, in State) (State, error) {
	if f.deps == nil || f.deps.Model == nil {
		in.Result = fmt.Sprintf("Deep analysis of '%v'", in.Topic)
		return in, nil
	}
	result, err := crews.RunAnalysis(ctx, f.deps, &crews.AnalysisInputs{
		ComplexData:         in.Topic,
		AdditionalContext:   "topic classified as " + in.TypeOfProcessing,
		TechnicalParameters: fmt.Sprintf("length %d", len(in.Topic)),
	})
	if err != nil {
		return in, err
	}
	synthesis := &crews.IntegratedSynthesis{}
	if err = result.Decode(synthesis); err != nil {
		return in, err
	}
	in.Result = synthesis.IntegratedSummary
	in.Analysis = result.Structured
	return in, nil
}

func (f *Flow) finalize(ctx context.Context, in State) (State, error) {
	f.logger.Info("routing flow summary", "topic", in.Topic, "typeOfProcessing", in.TypeOfProcessing, "result", in.Result)
	return in, nil
}
