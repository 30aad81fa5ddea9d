package crewflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/crewflow/crews"
	"github.com/viant/crewflow/flows/report"
	"github.com/viant/crewflow/flows/routing"
	"github.com/viant/crewflow/runtime/execution"
	"github.com/viant/crewflow/runtime/orchestrator"
	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/event"
)

// Flow names
const (
	FlowReport  = report.Name
	FlowRouting = routing.Name
)

// Runtime builds and runs flows with the configured orchestrator options
type Runtime struct {
	deps    *crews.Deps
	options []orchestrator.Option
	runs    dao.Service[string, execution.RunSummary]
}

func newRuntime(s *Service) *Runtime {
	cfg := s.config.Orchestrator
	return &Runtime{
		deps: s.Deps(),
		runs: s.runs,
		options: []orchestrator.Option{
			orchestrator.WithWorkers(cfg.Workers),
			orchestrator.WithPolicy(cfg.Policy()),
			orchestrator.WithLogger(s.logger),
			orchestrator.WithMetrics(s.metrics),
			orchestrator.WithEvents(event.PublisherOf[execution.StepEvent](s.events)),
		},
	}
}

// Flows returns the available flow names
func (r *Runtime) Flows() []string {
	return []string{FlowReport, FlowRouting}
}

// ReportFlow builds the report flow
func (r *Runtime) ReportFlow() (*orchestrator.Orchestrator[report.State], error) {
	return report.New(r.deps).Build(r.options...)
}

// RoutingFlow builds the routing flow
func (r *Runtime) RoutingFlow() (*orchestrator.Orchestrator[routing.State], error) {
	return routing.New(r.deps).Build(r.options...)
}

// RunReport runs the report flow; extra may set external_info_1..3
func (r *Runtime) RunReport(ctx context.Context, topic string, extra map[string]string) (*orchestrator.Outcome[report.State], error) {
	initial := report.State{Topic: topic}
	for key, value := range extra {
		switch key {
		case "external_info_1":
			initial.ExternalInfo1 = value
		case "external_info_2":
			initial.ExternalInfo2 = value
		case "external_info_3":
			initial.ExternalInfo3 = value
		default:
			return nil, fmt.Errorf("unsupported report input: %v", key)
		}
	}
	flow, err := r.ReportFlow()
	if err != nil {
		return nil, err
	}
	outcome, err := flow.Execute(ctx, initial)
	if err != nil {
		return nil, err
	}
	if err = r.runs.Save(ctx, outcome.Summary()); err != nil {
		return nil, fmt.Errorf("failed to save run %v: %w", outcome.RunID, err)
	}
	return outcome, nil
}

// RunRouting runs the routing flow for topic
func (r *Runtime) RunRouting(ctx context.Context, topic string) (*orchestrator.Outcome[routing.State], error) {
	flow, err := r.RoutingFlow()
	if err != nil {
		return nil, err
	}
	outcome, err := flow.Execute(ctx, routing.State{Topic: topic})
	if err != nil {
		return nil, err
	}
	if err = r.runs.Save(ctx, outcome.Summary()); err != nil {
		return nil, fmt.Errorf("failed to save run %v: %w", outcome.RunID, err)
	}
	return outcome, nil
}

// Runs lists stored run summaries, optionally of a single flow
func (r *Runtime) Runs(ctx context.Context, flow string) ([]*execution.RunSummary, error) {
	if flow == "" {
		return r.runs.List(ctx)
	}
	return r.runs.List(ctx, dao.NewParameter("flow", flow))
}

// Run returns a stored run summary
func (r *Runtime) Run(ctx context.Context, id string) (*execution.RunSummary, error) {
	return r.runs.Load(ctx, id)
}

// Schema returns the indented JSON schema of the flow state
func (r *Runtime) Schema(flow string) ([]byte, error) {
	switch flow {
	case FlowReport:
		return report.Schema().MarshalIndent()
	case FlowRouting:
		return routing.Schema().MarshalIndent()
	}
	return nil, fmt.Errorf("unknown flow: %v, available: %v", flow, r.Flows())
}

// Validate builds every flow graph and assembles every crew from its configuration
func (r *Runtime) Validate(ctx context.Context) error {
	if _, err := r.ReportFlow(); err != nil {
		return err
	}
	if _, err := r.RoutingFlow(); err != nil {
		return err
	}
	builders := map[string]func(ctx context.Context, deps *crews.Deps) (*crew.Crew, error){
		crews.ExampleCrew:  crews.NewExample,
		crews.AnalysisCrew: crews.NewAnalysis,
		crews.ReportCrew:   crews.NewReport,
	}
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		assembled, err := builders[name](ctx, r.deps)
		if err != nil {
			return fmt.Errorf("crew %v: %w", name, err)
		}
		if err = assembled.Validate(); err != nil {
			return fmt.Errorf("crew %v: %w", name, err)
		}
	}
	return nil
}
