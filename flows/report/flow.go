// Package report implements the linear example flow: the example crew
// processes prepared external information and the report crew turns its
// result into a final report.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/viant/crewflow/crews"
	"github.com/viant/crewflow/model/graph"
	"github.com/viant/crewflow/model/state"
	"github.com/viant/crewflow/runtime/orchestrator"
)

// Name is the flow name
const Name = "report"

// Step names
const (
	StepStart               = "start"
	StepPrepareExternalInfo = "prepare_external_info"
	StepRunExampleCrew      = "run_example_crew"
	StepGenerateFinalReport = "generate_final_report"
	StepFinalize            = "finalize"
)

// FallbackResult is the crew result substituted when the example crew fails
const FallbackResult = "fallback data"

var schema = state.MustSchema[State]()

// Schema returns the flow state schema
func Schema() *state.Schema[State] { return schema }

// Flow builds the report flow steps
type Flow struct {
	deps   *crews.Deps
	logger *slog.Logger
}

// New creates a report flow running crews assembled from deps
func New(deps *crews.Deps) *Flow {
	ret := &Flow{deps: deps, logger: slog.Default()}
	if deps != nil && deps.Logger != nil {
		ret.logger = deps.Logger
	}
	return ret
}

// Steps returns the flow graph
func (f *Flow) Steps() []*graph.Step[State] {
	return []*graph.Step[State]{
		graph.Start(StepStart, f.start).
			WithDescription("defaults the topic and the initial context"),
		graph.NewStep(StepPrepareExternalInfo, f.prepareExternalInfo, graph.After(StepStart)).
			WithDescription("prepares the external information passed to the example crew"),
		graph.NewStep(StepRunExampleCrew, f.runExampleCrew, graph.After(StepPrepareExternalInfo)).
			WithDescription("runs the example crew").
			WithFallback(func(in State, err error) State {
				in.CrewResult = map[string]any{"error": err.Error(), "fallback_result": FallbackResult}
				return in
			}),
		graph.NewStep(StepGenerateFinalReport, f.generateFinalReport, graph.After(StepRunExampleCrew)).
			WithDescription("runs the report crew on the example crew result").
			WithFallback(func(in State, err error) State {
				in.FinalReport = "Could not generate the report: " + err.Error()
				return in
			}),
		graph.NewStep(StepFinalize, f.finalize, graph.After(StepGenerateFinalReport)).
			WithDescription("logs the flow summary"),
	}
}

// Build returns the report flow orchestrator; the state schema is always enforced
func (f *Flow) Build(opts ...orchestrator.Option) (*orchestrator.Orchestrator[State], error) {
	opts = append([]orchestrator.Option{orchestrator.WithSchema(schema)}, opts...)
	return orchestrator.Build(Name, f.Steps(), opts...)
}

func (f *Flow) start(ctx context.Context, in State) (State, error) {
	if in.Topic == "" {
		in.Topic = DefaultTopic
	}
	if in.ExternalInfo1 == "" {
		in.ExternalInfo1 = "Initial context about " + in.Topic
	}
	f.logger.Info("report flow started", "topic", in.Topic)
	return in, nil
}

func (f *Flow) prepareExternalInfo(ctx context.Context, in State) (State, error) {
	in.ExternalInfo1 = fmt.Sprintf("Main context about '%v'", in.Topic)
	in.ExternalInfo2 = fmt.Sprintf("Complementary data related to '%v'", in.Topic)
	in.ExternalInfo3 = fmt.Sprintf("Additional information relevant to '%v'", in.Topic)
	f.logger.Debug("external information prepared", "topic", in.Topic)
	return in, nil
}

func (f *Flow) runExampleCrew(ctx context.Context, in State) (State, error) {
	if f.deps == nil {
		return in, fmt.Errorf("crew dependencies were nil")
	}
	result, err := crews.RunExample(ctx, f.deps, &crews.ExampleInputs{
		ExternalInfo1: in.ExternalInfo1,
		ExternalInfo2: in.ExternalInfo2,
		ExternalInfo3: in.ExternalInfo3,
	})
	if err != nil {
		return in, err
	}
	in.CrewResult = result.Map()
	return in, nil
}

func (f *Flow) generateFinalReport(ctx context.Context, in State) (State, error) {
	if f.deps == nil {
		return in, fmt.Errorf("crew dependencies were nil")
	}
	inputData, err := json.Marshal(in.CrewResult)
	if err != nil {
		return in, fmt.Errorf("failed to encode crew result: %w", err)
	}
	_, result, err := crews.RunReport(ctx, f.deps, in.Topic, string(inputData))
	if err != nil {
		return in, err
	}
	in.FinalReport = result.Raw
	return in, nil
}

func (f *Flow) finalize(ctx context.Context, in State) (State, error) {
	f.logger.Info("report flow summary",
		"topic", in.Topic,
		"processedInfo", len(in.CrewResult),
		"reportChars", len(in.FinalReport),
		"degraded", in.Degraded())
	return in, nil
}
