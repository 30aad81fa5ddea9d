package orchestrator

import (
	"log/slog"

	"github.com/viant/crewflow/metrics"
	"github.com/viant/crewflow/model/graph"
	"github.com/viant/crewflow/model/state"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/execution"
	"github.com/viant/crewflow/service/event"
)

// DefaultWorkers is the default number of step workers per run.
const DefaultWorkers = 4

type options struct {
	workers       int
	policy        *policy.Policy
	logger        *slog.Logger
	metrics       *metrics.Recorder
	events        *event.Publisher[execution.StepEvent]
	schema        any
	terminalMerge any
}

func defaultOptions() options {
	return options{workers: DefaultWorkers}
}

// Option customises an orchestrator.
type Option func(o *options)

// WithWorkers sets the number of concurrent step workers; 1 evaluates ready
// steps sequentially.
func WithWorkers(count int) Option {
	return func(o *options) {
		if count > 0 {
			o.workers = count
		}
	}
}

// WithPolicy sets the failure policy. A policy carried by the run context
// (policy.WithPolicy) takes precedence.
func WithPolicy(p *policy.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(o *options) { o.metrics = recorder }
}

// WithEvents publishes step lifecycle events; the publisher must have a
// listener draining it.
func WithEvents(publisher *event.Publisher[execution.StepEvent]) Option {
	return func(o *options) { o.events = publisher }
}

// WithSchema validates the initial state and every step output against schema.
func WithSchema[S any](schema *state.Schema[S]) Option {
	return func(o *options) { o.schema = schema }
}

// WithTerminalMerge folds the outputs of several terminal steps, ordered by
// completion, into the final state.
func WithTerminalMerge[S any](merge graph.Merge[S]) Option {
	return func(o *options) { o.terminalMerge = merge }
}
