// Package crews assembles the concrete crews from their embedded agent and
// task configuration.
package crews

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	afsstorage "github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/knowledge"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/storage"
	"github.com/viant/crewflow/service/tool"
)

//go:embed config
var configFS embed.FS

const embeddedConfigURL = "embed:///config"

// Deps are the collaborators crews are assembled from
type Deps struct {
	Model     llm.Model
	Tools     *tool.Registry
	Knowledge *knowledge.Base
	// KnowledgeChars bounds the knowledge injected into a prompt; 0 uses the agent default
	KnowledgeChars int
	Storage        *storage.Service
	FS             afs.Service
	// ConfigURL overrides the embedded configuration; it holds <crew>/agents.yaml and <crew>/tasks.yaml
	ConfigURL string
	Logger    *slog.Logger
}

func (d *Deps) fs() afs.Service {
	if d.FS == nil {
		return afs.New()
	}
	return d.FS
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Configs loads the agent and task blocks of a crew
func (d *Deps) Configs(ctx context.Context, name string) (crew.AgentConfigs, crew.TaskConfigs, error) {
	baseURL, options := d.ConfigURL, []afsstorage.Option{}
	if baseURL == "" {
		baseURL, options = embeddedConfigURL, []afsstorage.Option{&configFS}
	}
	agents, err := crew.LoadAgents(ctx, d.fs(), url.Join(baseURL, name, "agents.yaml"), options...)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := crew.LoadTasks(ctx, d.fs(), url.Join(baseURL, name, "tasks.yaml"), options...)
	if err != nil {
		return nil, nil, err
	}
	return agents, tasks, nil
}

// agent builds the named agent with the given tools and the shared knowledge
func (d *Deps) agent(agents crew.AgentConfigs, name string, tools ...string) (*crew.Agent, error) {
	config, err := agents.Lookup(name)
	if err != nil {
		return nil, err
	}
	if d.Model == nil {
		return nil, fmt.Errorf("agent %v: model was nil", name)
	}
	ret := crew.NewAgent(name, config, d.Model).WithKnowledge(d.Knowledge)
	ret.KnowledgeChars = d.KnowledgeChars
	if len(tools) > 0 && d.Tools != nil {
		selected, err := d.Tools.Select(tools...)
		if err != nil {
			return nil, err
		}
		ret.WithTools(selected...)
	}
	return ret, nil
}

// task builds the named task; agents are looked up by the block's agent name
func task(tasks crew.TaskConfigs, name string, agents map[string]*crew.Agent) (*crew.Task, error) {
	config, err := tasks.Lookup(name)
	if err != nil {
		return nil, err
	}
	agent, ok := agents[config.Agent]
	if !ok {
		return nil, &crew.ConfigError{Block: name, Reason: fmt.Sprintf("unknown agent %q", config.Agent)}
	}
	return crew.NewTask(name, config, agent), nil
}

func timestamped(dir, prefix, ext string) string {
	return storage.TimestampedName(dir, prefix, ext, clock.Now())
}
