package crewflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/crewflow/crews"
	"github.com/viant/crewflow/internal/logger"
	"github.com/viant/crewflow/metrics"
	"github.com/viant/crewflow/runtime/execution"
	"github.com/viant/crewflow/service/dao"
	daofs "github.com/viant/crewflow/service/dao/fs"
	"github.com/viant/crewflow/service/dao/memory"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/knowledge"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/storage"
	"github.com/viant/crewflow/service/tool"
	"github.com/viant/crewflow/service/tool/example"
	"github.com/viant/crewflow/tracing"
)

// Version is the crewflow version
const Version = "0.1.0"

// Service wires the collaborators flows run with
type Service struct {
	config     *Config
	logger     *slog.Logger
	fs         afs.Service
	storage    *storage.Service
	knowledge  *knowledge.Base
	model      llm.Model
	tools      *tool.Registry
	extraTools []tool.Tool
	registerer prometheus.Registerer
	metrics    *metrics.Recorder
	events     *event.Service
	runs       dao.Service[string, execution.RunSummary]
	runtime    *Runtime
	closers    []func() error
}

// New creates a service; every collaborator not supplied by an option is
// built from the configuration.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(ctx); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		log, closer, err := logger.Setup(s.config.Log)
		if err != nil {
			return err
		}
		s.logger = log
		s.closers = append(s.closers, closer)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	s.storage = storage.New(s.config.Output.BaseURL, storage.WithFS(s.fs))
	if err := s.initKnowledge(ctx); err != nil {
		return err
	}
	if s.model == nil {
		model, err := llm.New(ctx, &s.config.LLM)
		if err != nil {
			return err
		}
		s.model = model
	}
	if err := s.initTools(); err != nil {
		return err
	}
	if err := s.initObservability(ctx); err != nil {
		return err
	}
	if err := s.initRuns(ctx); err != nil {
		return err
	}
	s.runtime = newRuntime(s)
	return nil
}

func (s *Service) initKnowledge(ctx context.Context) error {
	if s.knowledge != nil || len(s.config.Knowledge.Paths) == 0 {
		return nil
	}
	loader := knowledge.NewLoader(knowledge.WithFS(s.fs), knowledge.WithLogger(s.logger))
	docs, err := loader.Load(ctx, s.config.Knowledge.Paths...)
	if err != nil {
		return err
	}
	s.knowledge = knowledge.NewBase(docs...)
	s.logger.Info("knowledge loaded", "documents", len(docs), "chunks", s.knowledge.Len())
	return nil
}

func (s *Service) initTools() error {
	exampleTool, err := example.New()
	if err != nil {
		return err
	}
	if s.tools, err = tool.NewRegistry(exampleTool); err != nil {
		return err
	}
	for _, extra := range s.extraTools {
		if err = s.tools.Register(extra); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) initObservability(ctx context.Context) error {
	if s.config.Metrics.Enabled {
		registerer := s.registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		recorder, err := metrics.NewRecorder(registerer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		s.metrics = recorder
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.ServiceName, Version, s.config.Tracing.File); err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
		s.closers = append(s.closers, func() error { return tracing.Shutdown(context.Background()) })
	}
	s.events = event.New(nil)
	event.SetListenerOf[execution.StepEvent](context.Background(), s.events, s.logStepEvent)
	return nil
}

func runKey(summary *execution.RunSummary) string { return summary.ID }

func runAttributes(summary *execution.RunSummary) map[string]string {
	return map[string]string{"flow": summary.Flow, "status": summary.Status}
}

func (s *Service) initRuns(ctx context.Context) error {
	if s.config.Output.RunsURL == "" {
		s.runs = memory.New[string, execution.RunSummary](runKey, runAttributes)
		return nil
	}
	runs, err := daofs.New[execution.RunSummary](ctx, s.fs, s.config.Output.RunsURL, runKey, runAttributes)
	if err != nil {
		return err
	}
	s.runs = runs
	return nil
}

func (s *Service) logStepEvent(evt *event.Event[execution.StepEvent]) {
	data := evt.Data
	args := []any{"flow", data.Flow, "run", data.RunID, "step", data.Step, "event", data.Type}
	switch data.Type {
	case execution.EventRouted:
		s.logger.Debug("step routed", append(args, "route", data.Route)...)
	case execution.EventDegraded, execution.EventFailed:
		s.logger.Debug("step "+data.Type, append(args, "error", data.Error)...)
	default:
		s.logger.Debug("step "+data.Type, append(args, "duration", data.Duration)...)
	}
}

// Config returns the effective configuration
func (s *Service) Config() *Config { return s.config }

// Logger returns the service logger
func (s *Service) Logger() *slog.Logger { return s.logger }

// Storage returns the output storage
func (s *Service) Storage() *storage.Service { return s.storage }

// Tools returns the tool registry
func (s *Service) Tools() *tool.Registry { return s.tools }

// Runtime returns the flow runtime
func (s *Service) Runtime() *Runtime { return s.runtime }

// Deps returns the crew dependencies
func (s *Service) Deps() *crews.Deps {
	return &crews.Deps{
		Model:          s.model,
		Tools:          s.tools,
		Knowledge:      s.knowledge,
		KnowledgeChars: s.config.Knowledge.MaxChars,
		Storage:        s.storage,
		FS:             s.fs,
		ConfigURL:      s.config.Crews.ConfigURL,
		Logger:         s.logger,
	}
}

// Close stops event listeners and releases log and tracing resources
func (s *Service) Close() error {
	if s.events != nil {
		s.events.Close()
		if dropped := event.DeadLettersOf[execution.StepEvent](s.events); len(dropped) > 0 {
			s.logger.Warn("step events dropped after failed handling", "count", len(dropped))
		}
	}
	var ret error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && ret == nil {
			ret = err
		}
	}
	s.closers = nil
	return ret
}
