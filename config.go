package crewflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/viant/afs"
	"github.com/viant/crewflow/internal/env"
	"github.com/viant/crewflow/internal/logger"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/orchestrator"
	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/llm"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the service configuration. It
// is loaded from YAML; ${env.NAME} expressions are expanded before decoding
// and omitted sections keep their DefaultConfig values.
type Config struct {
	Log          logger.Config      `json:"log" yaml:"log"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	LLM          llm.Config         `json:"llm" yaml:"llm"`
	Knowledge    KnowledgeConfig    `json:"knowledge" yaml:"knowledge"`
	Output       OutputConfig       `json:"output" yaml:"output"`
	Crews        CrewsConfig        `json:"crews" yaml:"crews"`
	Tracing      TracingConfig      `json:"tracing" yaml:"tracing"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics"`
}

// OrchestratorConfig configures flow execution
type OrchestratorConfig struct {
	Workers     int      `json:"workers" yaml:"workers" validate:"gte=1,lte=1024"`
	FailureMode string   `json:"failureMode,omitempty" yaml:"failureMode,omitempty" validate:"omitempty,oneof=degrade abort"`
	Critical    []string `json:"critical,omitempty" yaml:"critical,omitempty"`
	Tolerant    []string `json:"tolerant,omitempty" yaml:"tolerant,omitempty"`
}

// Policy returns the failure policy
func (c *OrchestratorConfig) Policy() *policy.Policy {
	return policy.FromConfig(&policy.Config{Mode: c.FailureMode, Critical: c.Critical, Tolerant: c.Tolerant})
}

// KnowledgeConfig lists knowledge sources shared by every agent
type KnowledgeConfig struct {
	Paths    []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	MaxChars int      `json:"maxChars,omitempty" yaml:"maxChars,omitempty" validate:"gte=0"`
}

// OutputConfig locates task outputs, crew logs and run summaries
type OutputConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL" validate:"required"`
	// RunsURL persists run summaries as JSON documents; empty keeps them in memory
	RunsURL string `json:"runsURL,omitempty" yaml:"runsURL,omitempty"`
}

// CrewsConfig overrides the embedded crew configuration
type CrewsConfig struct {
	ConfigURL string `json:"configURL,omitempty" yaml:"configURL,omitempty"`
}

// TracingConfig configures the OpenTelemetry stdout exporter
type TracingConfig struct {
	Enabled     bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	File        string `json:"file,omitempty" yaml:"file,omitempty"`
}

// MetricsConfig enables the Prometheus recorder
type MetricsConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// DefaultConfig returns a Config populated with the default values. Callers
// may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Log:          logger.Config{Level: "info", Format: logger.FormatText},
		Orchestrator: OrchestratorConfig{Workers: orchestrator.DefaultWorkers, FailureMode: policy.ModeDegrade},
		LLM:          llm.Config{Provider: llm.ProviderEcho},
		Knowledge:    KnowledgeConfig{MaxChars: crew.DefaultKnowledgeChars},
		Output:       OutputConfig{BaseURL: "output"},
		Tracing:      TracingConfig{ServiceName: "crewflow"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var violations []string
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fieldErr := range fieldErrs {
			violations = append(violations, fmt.Sprintf("%s: failed '%s' constraint", fieldErr.Namespace(), fieldErr.Tag()))
		}
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", llm.ProviderEcho:
	case llm.ProviderGemini:
		if c.LLM.APIKey == "" && (c.LLM.Secret == nil || c.LLM.Secret.URL == "") {
			violations = append(violations, "llm.apiKey or llm.secret.url is required by the gemini provider")
		}
	default:
		violations = append(violations, fmt.Sprintf("unsupported llm provider: %v", c.LLM.Provider))
	}
	if len(violations) > 0 {
		return fmt.Errorf("invalid config: %v", strings.Join(violations, "; "))
	}
	return nil
}

// DecodeConfig expands ${env.NAME} expressions in data and decodes it over DefaultConfig
func DecodeConfig(data []byte) (*Config, error) {
	ret := DefaultConfig()
	if err := yaml.Unmarshal([]byte(env.Expand(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadConfig reads the YAML config from URL
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret, err := DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", URL, err)
	}
	return ret, nil
}
