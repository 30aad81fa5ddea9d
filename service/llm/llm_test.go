package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		description string
		config      *Config
		expectName  string
		expectErr   bool
	}{
		{description: "nil config", expectName: "echo"},
		{description: "echo", config: &Config{Provider: "ECHO"}, expectName: "echo"},
		{description: "gemini without key", config: &Config{Provider: "gemini"}, expectErr: true},
		{description: "unknown", config: &Config{Provider: "other"}, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			model, err := New(ctx, tc.config)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectName, model.Name())
		})
	}
}

func TestEcho_Generate(t *testing.T) {
	ctx := context.Background()
	model := NewEcho()
	resp, err := model.Generate(ctx, &Request{System: "be brief", Prompt: "Summarise AI\nsecond line"})
	require.NoError(t, err)
	assert.Equal(t, "Echo: Summarise AI", resp.Text)
	assert.Equal(t, 6, resp.PromptTokens)
	assert.Equal(t, 9, resp.TotalTokens())

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key_1": map[string]any{"type": "string"},
			"key_2": map[string]any{"type": "integer"},
			"key_3": map[string]any{"type": "number"},
			"key_4": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"key_5": map[string]any{"type": "object"},
			"mode":  map[string]any{"type": "string", "enum": []any{"fast", "slow"}},
		},
	}
	resp, err = model.Generate(ctx, &Request{Prompt: "x", Schema: schema})
	require.NoError(t, err)
	var actual map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &actual))
	assert.Equal(t, map[string]any{
		"key_1": "key_1",
		"key_2": float64(0),
		"key_3": float64(0),
		"key_4": []any{"key_4"},
		"key_5": map[string]any{},
		"mode":  "fast",
	}, actual)
}

func TestScripted_Generate(t *testing.T) {
	ctx := context.Background()
	model := NewScripted("one", "two")
	resp, err := model.Generate(ctx, &Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Text)
	resp, err = model.Generate(ctx, &Request{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, "two", resp.Text)
	_, err = model.Generate(ctx, &Request{Prompt: "c"})
	assert.ErrorIs(t, err, ErrScriptExhausted)
	require.Len(t, model.Requests(), 3)
	assert.Equal(t, "b", model.Requests()[1].Prompt)
}

func TestGemini_BuildConfig(t *testing.T) {
	temperature := 0.2
	model := &Gemini{model: DefaultModel, config: Config{Temperature: 0.7}}
	config, err := model.buildConfig(&Request{System: "sys", Prompt: "p", Schema: map[string]any{"type": "object"}, Temperature: &temperature})
	require.NoError(t, err)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.SystemInstruction)
	assert.Contains(t, config.SystemInstruction.Parts[0].Text, `{"type":"object"}`)
	assert.InDelta(t, 0.2, float64(*config.Temperature), 0.0001)

	config, err = model.buildConfig(&Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Nil(t, config.SystemInstruction)
	assert.InDelta(t, 0.7, float64(*config.Temperature), 0.0001)
}
