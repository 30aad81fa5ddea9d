package crew

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/afs"
	afsstorage "github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"
)

// AgentConfig is an agents.yaml block
type AgentConfig struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskConfig is a tasks.yaml block
type TaskConfig struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent,omitempty"`
}

// ConfigError reports a missing or invalid configuration block
type ConfigError struct {
	Source string
	Block  string
	Reason string
}

func (e *ConfigError) Error() string {
	ret := "crew config"
	if e.Source != "" {
		ret += " " + e.Source
	}
	if e.Block != "" {
		ret += ": block " + e.Block
	}
	return ret + ": " + e.Reason
}

// AgentConfigs are agent blocks keyed by agent name
type AgentConfigs map[string]*AgentConfig

// TaskConfigs are task blocks keyed by task name
type TaskConfigs map[string]*TaskConfig

// Lookup returns the named agent block
func (c AgentConfigs) Lookup(name string) (*AgentConfig, error) {
	ret, ok := c[name]
	if !ok {
		return nil, &ConfigError{Block: name, Reason: "agent block not found, available: " + strings.Join(keys(c), ", ")}
	}
	return ret, nil
}

// Lookup returns the named task block
func (c TaskConfigs) Lookup(name string) (*TaskConfig, error) {
	ret, ok := c[name]
	if !ok {
		return nil, &ConfigError{Block: name, Reason: "task block not found, available: " + strings.Join(keys(c), ", ")}
	}
	return ret, nil
}

// DecodeAgents parses agents.yaml content
func DecodeAgents(source string, data []byte) (AgentConfigs, error) {
	ret := AgentConfigs{}
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, &ConfigError{Source: source, Reason: err.Error()}
	}
	for name, block := range ret {
		switch {
		case block == nil:
			return nil, &ConfigError{Source: source, Block: name, Reason: "block was empty"}
		case strings.TrimSpace(block.Role) == "":
			return nil, &ConfigError{Source: source, Block: name, Reason: "role was empty"}
		case strings.TrimSpace(block.Goal) == "":
			return nil, &ConfigError{Source: source, Block: name, Reason: "goal was empty"}
		}
	}
	return ret, nil
}

// DecodeTasks parses tasks.yaml content
func DecodeTasks(source string, data []byte) (TaskConfigs, error) {
	ret := TaskConfigs{}
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, &ConfigError{Source: source, Reason: err.Error()}
	}
	for name, block := range ret {
		switch {
		case block == nil:
			return nil, &ConfigError{Source: source, Block: name, Reason: "block was empty"}
		case strings.TrimSpace(block.Description) == "":
			return nil, &ConfigError{Source: source, Block: name, Reason: "description was empty"}
		case strings.TrimSpace(block.ExpectedOutput) == "":
			return nil, &ConfigError{Source: source, Block: name, Reason: "expected_output was empty"}
		}
	}
	return ret, nil
}

// LoadAgents reads agents.yaml from URL; options are passed to afs, e.g. an embed.FS
func LoadAgents(ctx context.Context, fs afs.Service, URL string, options ...afsstorage.Option) (AgentConfigs, error) {
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load agents from %v: %w", URL, err)
	}
	return DecodeAgents(URL, data)
}

// LoadTasks reads tasks.yaml from URL; options are passed to afs
func LoadTasks(ctx context.Context, fs afs.Service, URL string, options ...afsstorage.Option) (TaskConfigs, error) {
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks from %v: %w", URL, err)
	}
	return DecodeTasks(URL, data)
}

func keys[T any](m map[string]T) []string {
	ret := make([]string, 0, len(m))
	for key := range m {
		ret = append(ret, key)
	}
	sort.Strings(ret)
	return ret
}
