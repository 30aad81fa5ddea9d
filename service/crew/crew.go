// Package crew runs role playing agents through a sequence of tasks.
package crew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/storage"
	"github.com/viant/crewflow/tracing"
)

// Process is the task execution strategy
type Process string

// ProcessSequential runs tasks in declaration order
const ProcessSequential Process = "sequential"

// Crew is a set of agents working through tasks
type Crew struct {
	Name          string
	Agents        []*Agent
	Tasks         []*Task
	Process       Process
	Planning      bool
	PlanningModel llm.Model
	Storage       *storage.Service
	LogFile       string
	Logger        *slog.Logger
}

// LogEntry is a record of the crew log file
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Crew      string    `json:"crew"`
	Task      string    `json:"task,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Status    string    `json:"status"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Tokens    int       `json:"tokens,omitempty"`
}

// Validate checks the crew definition
func (c *Crew) Validate() error {
	if c.Name == "" {
		return &ConfigError{Reason: "crew name was empty"}
	}
	if len(c.Tasks) == 0 {
		return &ConfigError{Source: c.Name, Reason: "crew has no tasks"}
	}
	switch c.Process {
	case "", ProcessSequential:
	default:
		return &ConfigError{Source: c.Name, Reason: fmt.Sprintf("unsupported process %q", c.Process)}
	}
	seen := map[string]bool{}
	for _, task := range c.Tasks {
		if task.Name == "" {
			return &ConfigError{Source: c.Name, Reason: "task name was empty"}
		}
		if seen[task.Name] {
			return &ConfigError{Source: c.Name, Block: task.Name, Reason: "duplicate task"}
		}
		if task.Agent == nil {
			return &ConfigError{Source: c.Name, Block: task.Name, Reason: "task has no agent"}
		}
		for _, name := range task.Context {
			if !seen[name] {
				return &ConfigError{Source: c.Name, Block: task.Name, Reason: "context task " + name + " does not run before this task"}
			}
		}
		seen[task.Name] = true
	}
	return nil
}

// Inputs returns the placeholder names used by tasks and agents
func (c *Crew) Inputs() []string {
	var texts []string
	for _, task := range c.Tasks {
		texts = append(texts, task.Description, task.ExpectedOutput)
		if task.Agent != nil {
			texts = append(texts, task.Agent.Role, task.Agent.Goal, task.Agent.Backstory)
		}
	}
	return Placeholders(texts...)
}

// Kickoff runs the tasks sequentially with inputs interpolated into every
// {placeholder}; the result carries the last task output.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, span := tracing.StartSpan(ctx, "crew "+c.Name, tracing.KindInternal)
	span.WithAttributes(map[string]string{"crew": c.Name})
	result, err := c.kickoff(ctx, logger, inputs)
	tracing.EndSpan(span, err)
	return result, err
}

func (c *Crew) kickoff(ctx context.Context, logger *slog.Logger, inputs map[string]string) (*Result, error) {
	tasks, err := c.interpolate(inputs)
	if err != nil {
		return nil, err
	}
	logger.Info("crew started", "crew", c.Name, "tasks", len(tasks))
	result := &Result{Crew: c.Name}
	var entries []*LogEntry
	if c.Planning {
		if result.Plan, result.TokensUsed, err = c.plan(ctx, tasks); err != nil {
			return nil, err
		}
		entries = append(entries, &LogEntry{Timestamp: clock.Now(), Crew: c.Name, Status: "planned", Output: result.Plan})
	}
	outputs := map[string]*TaskOutput{}
	var previous *TaskOutput
	for _, task := range tasks {
		output, err := c.runTask(ctx, logger, task, result.Plan, contextOf(task, outputs, previous))
		if err != nil {
			entries = append(entries, &LogEntry{Timestamp: clock.Now(), Crew: c.Name, Task: task.Name, Agent: task.Agent.Name, Status: "failed", Error: err.Error()})
			return nil, errors.Join(err, c.writeLog(ctx, entries))
		}
		entries = append(entries, &LogEntry{Timestamp: clock.Now(), Crew: c.Name, Task: task.Name, Agent: task.Agent.Name, Status: "completed", Output: output.Raw, Tokens: output.Tokens})
		outputs[task.Name] = output
		previous = output
		result.Tasks = append(result.Tasks, output)
		result.TokensUsed += output.Tokens
	}
	result.Raw = previous.Raw
	result.Structured = previous.Structured
	if err = c.writeLog(ctx, entries); err != nil {
		return nil, err
	}
	logger.Info("crew completed", "crew", c.Name, "tokens", result.TokensUsed)
	return result, nil
}

func (c *Crew) interpolate(inputs map[string]string) ([]*Task, error) {
	agents := map[*Agent]*Agent{}
	ret := make([]*Task, 0, len(c.Tasks))
	for _, task := range c.Tasks {
		clone := *task
		var err error
		if clone.Description, err = Interpolate(task.Description, inputs); err != nil {
			return nil, fmt.Errorf("task %v: %w", task.Name, err)
		}
		if clone.ExpectedOutput, err = Interpolate(task.ExpectedOutput, inputs); err != nil {
			return nil, fmt.Errorf("task %v: %w", task.Name, err)
		}
		agent, ok := agents[task.Agent]
		if !ok {
			if agent, err = task.Agent.interpolated(inputs); err != nil {
				return nil, fmt.Errorf("agent %v: %w", task.Agent.Name, err)
			}
			agents[task.Agent] = agent
		}
		clone.Agent = agent
		ret = append(ret, &clone)
	}
	return ret, nil
}

func (c *Crew) plan(ctx context.Context, tasks []*Task) (string, int, error) {
	model := c.PlanningModel
	if model == nil {
		model = tasks[0].Agent.Model
	}
	if model == nil {
		return "", 0, fmt.Errorf("crew %v: no planning model", c.Name)
	}
	builder := strings.Builder{}
	builder.WriteString("Create a concise step by step plan for the following tasks.\n")
	for i, task := range tasks {
		builder.WriteString(fmt.Sprintf("\nTask %d (%v, agent %v): %v\nExpected output: %v\n", i+1, task.Name, task.Agent.Role, task.Description, task.ExpectedOutput))
	}
	resp, err := model.Generate(ctx, &llm.Request{System: "You are a planning assistant for a team of agents.", Prompt: builder.String()})
	if err != nil {
		return "", 0, fmt.Errorf("crew %v planning failed: %w", c.Name, err)
	}
	return strings.TrimSpace(resp.Text), resp.TotalTokens(), nil
}

// contextOf returns the declared context outputs, or the previous output when none are declared
func contextOf(task *Task, outputs map[string]*TaskOutput, previous *TaskOutput) []*TaskOutput {
	if len(task.Context) == 0 {
		if previous == nil {
			return nil
		}
		return []*TaskOutput{previous}
	}
	ret := make([]*TaskOutput, 0, len(task.Context))
	for _, name := range task.Context {
		ret = append(ret, outputs[name])
	}
	return ret
}

func (c *Crew) runTask(ctx context.Context, logger *slog.Logger, task *Task, plan string, related []*TaskOutput) (*TaskOutput, error) {
	started := clock.Now()
	logger.Debug("task started", "crew", c.Name, "task", task.Name, "agent", task.Agent.Name)
	var outputSchema map[string]any
	if task.Output != nil {
		outputSchema = task.Output.Schema
	}
	reply, err := task.Agent.execute(ctx, logger, prompt(task, plan, related), outputSchema)
	if err != nil {
		return nil, fmt.Errorf("task %v: %w", task.Name, err)
	}
	ret := &TaskOutput{
		Name:        task.Name,
		Agent:       task.Agent.Name,
		Description: task.Description,
		Raw:         reply.Text,
		Tokens:      reply.Tokens,
		ToolCalls:   reply.ToolCalls,
	}
	if task.Output != nil {
		if ret.Structured, err = structure(task.Name, task.Output, reply.Text); err != nil {
			return nil, err
		}
	}
	if task.OutputFile != "" && c.Storage != nil {
		asset, err := c.Storage.Write(ctx, task.OutputFile, []byte(ret.Markdown()))
		if err != nil {
			return nil, err
		}
		ret.File = asset.URL
	}
	logger.Info("task completed", "crew", c.Name, "task", task.Name, "agent", task.Agent.Name, "tokens", ret.Tokens, "elapsed", clock.Since(started))
	return ret, nil
}

func prompt(task *Task, plan string, related []*TaskOutput) string {
	builder := strings.Builder{}
	builder.WriteString("Current Task: " + task.Description + "\n\n")
	builder.WriteString("This is the expected criteria for your final answer: " + task.ExpectedOutput + "\n")
	builder.WriteString("You MUST return the actual complete content as the final answer, not a summary.")
	if plan != "" {
		builder.WriteString("\n\nExecution plan:\n" + plan)
	}
	if len(related) > 0 {
		builder.WriteString("\n\nThis is the context you're working with:")
		for _, output := range related {
			builder.WriteString("\n\n[" + output.Name + "]\n" + output.Raw)
		}
	}
	return builder.String()
}

func (c *Crew) writeLog(ctx context.Context, entries []*LogEntry) error {
	if c.LogFile == "" || c.Storage == nil {
		return nil
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err == nil {
		_, err = c.Storage.Write(ctx, c.LogFile, data)
	}
	if err != nil {
		return fmt.Errorf("crew %v: failed to write log %v: %w", c.Name, c.LogFile, err)
	}
	return nil
}
