package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/scy"
	_ "github.com/viant/scy/kms/blowfish"
)

func TestConfig_ResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	URL := "mem://localhost/llm_test/gemini.key"
	resource := scy.NewResource(nil, URL, "blowfish://default")
	require.NoError(t, scy.New().Store(ctx, scy.NewSecret("sealed-key", resource)))

	var testCases = []struct {
		description string
		config      Config
		expect      string
	}{
		{description: "inline key", config: Config{APIKey: "inline", Secret: &Secret{URL: URL}}, expect: "inline"},
		{description: "no key", config: Config{}, expect: ""},
		{description: "secret", config: Config{Secret: &Secret{URL: URL, Key: "blowfish://default"}}, expect: "sealed-key"},
	}
	for _, testCase := range testCases {
		actual, err := testCase.config.ResolveAPIKey(ctx)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}
