// Package llm abstracts the language models agents talk to.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Model generates a completion for a request
type Model interface {
	Name() string
	Generate(ctx context.Context, request *Request) (*Response, error)
}

// Request is a single prompt exchange
type Request struct {
	System      string
	Prompt      string
	Schema      map[string]any
	Temperature *float64
}

// Structured returns true when a JSON document conforming to Schema is expected
func (r *Request) Structured() bool {
	return r != nil && len(r.Schema) > 0
}

// Response is a model completion
type Response struct {
	Text         string
	PromptTokens int
	OutputTokens int
}

// TotalTokens returns prompt and output tokens
func (r *Response) TotalTokens() int {
	if r == nil {
		return 0
	}
	return r.PromptTokens + r.OutputTokens
}

// Providers
const (
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

// Config selects and configures a model provider
type Config struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model,omitempty" json:"model,omitempty"`
	APIKey      string  `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
	Secret      *Secret `yaml:"secret,omitempty" json:"secret,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.0-flash"

// New creates the model selected by config
func New(ctx context.Context, config *Config) (Model, error) {
	if config == nil {
		return NewEcho(), nil
	}
	switch strings.ToLower(config.Provider) {
	case "", ProviderEcho:
		return NewEcho(), nil
	case ProviderGemini:
		return NewGemini(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %v", config.Provider)
	}
}

// Func adapts a function to Model
type Func func(ctx context.Context, request *Request) (*Response, error)

// Name returns "func"
func (f Func) Name() string { return "func" }

// Generate calls f
func (f Func) Generate(ctx context.Context, request *Request) (*Response, error) {
	return f(ctx, request)
}

func estimateTokens(texts ...string) int {
	ret := 0
	for _, text := range texts {
		ret += len(strings.Fields(text))
	}
	return ret
}
