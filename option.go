package crewflow

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/crewflow/service/knowledge"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/tool"
	"github.com/viant/crewflow/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises a Service
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLogger sets the logger; otherwise one is set up from the log config
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFS sets the file system used for config, knowledge and outputs
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithModel sets the language model, bypassing the llm config
func WithModel(model llm.Model) Option {
	return func(s *Service) { s.model = model }
}

// WithTools registers additional agent tools
func WithTools(tools ...tool.Tool) Option {
	return func(s *Service) { s.extraTools = append(s.extraTools, tools...) }
}

// WithKnowledge sets the knowledge base, bypassing the knowledge config
func WithKnowledge(base *knowledge.Base) Option {
	return func(s *Service) { s.knowledge = base }
}

// WithRegisterer sets the Prometheus registerer used when metrics are enabled
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(s *Service) { s.registerer = registerer }
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, e.g.
// an in-memory exporter in tests. The first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
