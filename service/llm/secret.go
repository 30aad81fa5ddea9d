package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/scy"
)

// Secret locates an encrypted API key
type Secret struct {
	URL string `yaml:"url" json:"url"`
	Key string `yaml:"key,omitempty" json:"key,omitempty"`
}

// ResolveAPIKey returns the inline API key, or reveals the configured secret
func (c *Config) ResolveAPIKey(ctx context.Context) (string, error) {
	if c.APIKey != "" || c.Secret == nil || c.Secret.URL == "" {
		return c.APIKey, nil
	}
	resource := scy.NewResource(nil, c.Secret.URL, c.Secret.Key)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to load api key from %s: %w", c.Secret.URL, err)
	}
	return strings.TrimSpace(secret.String()), nil
}
