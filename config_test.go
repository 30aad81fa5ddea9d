package crewflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/storage"
)

func TestDecodeConfig(t *testing.T) {
	t.Setenv("CREWFLOW_TEST_API_KEY", "secret")
	cfg, err := DecodeConfig([]byte(`
orchestrator:
  workers: 2
  failureMode: abort
  critical: [run_example_crew]
llm:
  provider: gemini
  apiKey: ${env.CREWFLOW_TEST_API_KEY}
output:
  baseURL: mem://localhost/out
`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Orchestrator.Workers)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "info", cfg.Log.Level, "omitted sections keep defaults")
	p := cfg.Orchestrator.Policy()
	assert.True(t, p.Aborts("any"))
	assert.Equal(t, policy.ModeAbort, p.Mode)
}

func TestConfig_Validate(t *testing.T) {
	var testCases = []struct {
		description string
		mutate      func(c *Config)
		expectErr   bool
	}{
		{description: "default", mutate: func(c *Config) {}},
		{description: "no workers", mutate: func(c *Config) { c.Orchestrator.Workers = 0 }, expectErr: true},
		{description: "unknown failure mode", mutate: func(c *Config) { c.Orchestrator.FailureMode = "retry" }, expectErr: true},
		{description: "gemini without key", mutate: func(c *Config) { c.LLM.Provider = llm.ProviderGemini }, expectErr: true},
		{description: "gemini with secret", mutate: func(c *Config) {
			c.LLM.Provider = llm.ProviderGemini
			c.LLM.Secret = &llm.Secret{URL: "mem://localhost/key"}
		}},
		{description: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "other" }, expectErr: true},
		{description: "no output", mutate: func(c *Config) { c.Output.BaseURL = "" }, expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			cfg := DefaultConfig()
			testCase.mutate(cfg)
			err := cfg.Validate()
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	_, err := storage.New("mem://localhost/config_test", storage.WithFS(fs)).Write(ctx, "crewflow.yaml", []byte("orchestrator:\n  workers: 3\n"))
	require.NoError(t, err)
	cfg, err := LoadConfig(ctx, fs, "mem://localhost/config_test/crewflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Orchestrator.Workers)

	_, err = LoadConfig(ctx, fs, "mem://localhost/config_test/missing.yaml")
	assert.Error(t, err)
}
