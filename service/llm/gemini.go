package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini is a Google Gemini model
type Gemini struct {
	client *genai.Client
	model  string
	config Config
}

// NewGemini creates a Gemini model; the API key is required, either inline or as a secret
func NewGemini(ctx context.Context, config *Config) (*Gemini, error) {
	apiKey, err := config.ResolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, config: *config}, nil
}

// Name returns the model name
func (g *Gemini) Name() string { return g.model }

// Generate sends the request to Gemini
func (g *Gemini) Generate(ctx context.Context, request *Request) (*Response, error) {
	config, err := g.buildConfig(request)
	if err != nil {
		return nil, err
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: request.Prompt}}}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	ret := &Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		ret.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		ret.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return ret, nil
}

func (g *Gemini) buildConfig(request *Request) (*genai.GenerateContentConfig, error) {
	system := request.System
	ret := &genai.GenerateContentConfig{}
	if request.Structured() {
		schema, err := json.Marshal(request.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode response schema: %w", err)
		}
		ret.ResponseMIMEType = "application/json"
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON document conforming to this JSON schema:\n" + string(schema))
	}
	if system != "" {
		ret.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	switch {
	case request.Temperature != nil:
		ret.Temperature = genai.Ptr(float32(*request.Temperature))
	case g.config.Temperature > 0:
		ret.Temperature = genai.Ptr(float32(g.config.Temperature))
	}
	return ret, nil
}
