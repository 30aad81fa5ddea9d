package crew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viant/crewflow/service/knowledge"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/tool"
)

// DefaultMaxIterations bounds the tool loop of an agent
const DefaultMaxIterations = 5

// DefaultKnowledgeChars bounds the knowledge injected into a prompt
const DefaultKnowledgeChars = 4000

const (
	toolCallPrefix    = "TOOL_CALL:"
	observationPrefix = "Observation:"
)

// ErrMaxIterations is returned when an agent keeps calling tools past its limit
var ErrMaxIterations = errors.New("agent exceeded max iterations")

// Agent is a role playing model participant
type Agent struct {
	Name           string
	Role           string
	Goal           string
	Backstory      string
	Model          llm.Model
	Tools          []tool.Tool
	Knowledge      *knowledge.Base
	KnowledgeChars int
	MaxIterations  int
}

// NewAgent creates an agent from its configuration block
func NewAgent(name string, config *AgentConfig, model llm.Model) *Agent {
	return &Agent{
		Name:      name,
		Role:      strings.TrimSpace(config.Role),
		Goal:      strings.TrimSpace(config.Goal),
		Backstory: strings.TrimSpace(config.Backstory),
		Model:     model,
	}
}

// WithTools sets the agent tools
func (a *Agent) WithTools(tools ...tool.Tool) *Agent {
	a.Tools = tools
	return a
}

// WithKnowledge sets the agent knowledge base
func (a *Agent) WithKnowledge(base *knowledge.Base) *Agent {
	a.Knowledge = base
	return a
}

func (a *Agent) interpolated(inputs map[string]string) (*Agent, error) {
	ret := *a
	var err error
	if ret.Role, err = Interpolate(a.Role, inputs); err != nil {
		return nil, err
	}
	if ret.Goal, err = Interpolate(a.Goal, inputs); err != nil {
		return nil, err
	}
	if ret.Backstory, err = Interpolate(a.Backstory, inputs); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (a *Agent) system() string {
	builder := strings.Builder{}
	builder.WriteString("You are " + a.Role + ".\n")
	if a.Backstory != "" {
		builder.WriteString(a.Backstory + "\n")
	}
	builder.WriteString("Your personal goal is: " + a.Goal)
	if len(a.Tools) > 0 {
		builder.WriteString("\n\nYou can use the following tools:\n")
		builder.WriteString(tool.Describe(a.Tools))
		builder.WriteString("\n\nTo use a tool reply with a single line:\n")
		builder.WriteString(toolCallPrefix + ` {"name": "<tool>", "arguments": {...}}`)
		builder.WriteString("\nYou will receive the result as an " + observationPrefix + " line. Reply without a tool call once you have the final answer.")
	}
	return builder.String()
}

// answer is the final agent reply of a task
type answer struct {
	Text      string
	Tokens    int
	ToolCalls int
}

// execute runs the tool loop until the model replies without a tool call
func (a *Agent) execute(ctx context.Context, logger *slog.Logger, prompt string, outputSchema map[string]any) (*answer, error) {
	if a.Model == nil {
		return nil, fmt.Errorf("agent %v has no model", a.Name)
	}
	if a.Knowledge.Len() > 0 {
		limit := a.KnowledgeChars
		if limit == 0 {
			limit = DefaultKnowledgeChars
		}
		if section := a.Knowledge.Context(prompt, limit); section != "" {
			prompt += "\n\nRelevant knowledge:\n" + section
		}
	}
	maxIterations := a.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	ret := &answer{}
	request := &llm.Request{System: a.system(), Prompt: prompt, Schema: outputSchema}
	for iteration := 0; iteration < maxIterations; iteration++ {
		resp, err := a.Model.Generate(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("agent %v: %w", a.Name, err)
		}
		ret.Tokens += resp.TotalTokens()
		call, err := parseToolCall(resp.Text)
		if err != nil {
			return nil, fmt.Errorf("agent %v: %w", a.Name, err)
		}
		if call == nil {
			ret.Text = strings.TrimSpace(resp.Text)
			return ret, nil
		}
		ret.ToolCalls++
		observation, err := tool.Invoke(ctx, a.Tools, call)
		if err != nil {
			logger.Warn("tool call failed", "agent", a.Name, "tool", call.Name, "error", err)
			observation = "error: " + err.Error()
		} else {
			logger.Debug("tool called", "agent", a.Name, "tool", call.Name)
		}
		request = &llm.Request{
			System: request.System,
			Prompt: request.Prompt + "\n\n" + strings.TrimSpace(resp.Text) + "\n" + observationPrefix + " " + observation,
			Schema: outputSchema,
		}
	}
	return nil, fmt.Errorf("agent %v: %w (%d)", a.Name, ErrMaxIterations, maxIterations)
}

// parseToolCall returns the tool call of a reply, or nil for a final answer
func parseToolCall(text string) (*tool.Call, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, toolCallPrefix) {
			continue
		}
		ret := &tool.Call{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, toolCallPrefix))), ret); err != nil {
			return nil, fmt.Errorf("malformed tool call %q: %w", line, err)
		}
		if ret.Name == "" {
			return nil, fmt.Errorf("tool call without name: %q", line)
		}
		return ret, nil
	}
	return nil, nil
}
