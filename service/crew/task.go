package crew

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/viant/crewflow/model/schema"
)

// OutputSpec describes the structured output of a task
type OutputSpec struct {
	Name   string
	Schema map[string]any
}

// OutputOf reflects the output spec of T
func OutputOf[T any](name string) (*OutputSpec, error) {
	doc, err := schema.Of[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to reflect output %v: %w", name, err)
	}
	return &OutputSpec{Name: name, Schema: doc}, nil
}

// Task is a unit of work assigned to an agent
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
	Context        []string
	Output         *OutputSpec
	OutputFile     string
}

// NewTask creates a task from its configuration block
func NewTask(name string, config *TaskConfig, agent *Agent) *Task {
	return &Task{
		Name:           name,
		Description:    strings.TrimSpace(config.Description),
		ExpectedOutput: strings.TrimSpace(config.ExpectedOutput),
		Agent:          agent,
	}
}

// WithContext declares the tasks whose outputs this task sees
func (t *Task) WithContext(tasks ...string) *Task {
	t.Context = tasks
	return t
}

// WithOutput sets the structured output spec
func (t *Task) WithOutput(output *OutputSpec) *Task {
	t.Output = output
	return t
}

// WithOutputFile sets the markdown file the task output is written to
func (t *Task) WithOutputFile(name string) *Task {
	t.OutputFile = name
	return t
}

// OutputError is returned when a structured task output does not conform to its spec
type OutputError struct {
	Task string
	Raw  string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("task %v produced invalid structured output: %v", e.Task, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// TaskOutput is the result of a task
type TaskOutput struct {
	Name        string         `json:"name"`
	Agent       string         `json:"agent"`
	Description string         `json:"description"`
	Raw         string         `json:"raw"`
	Structured  map[string]any `json:"structured,omitempty"`
	Tokens      int            `json:"tokens"`
	ToolCalls   int            `json:"toolCalls,omitempty"`
	File        string         `json:"file,omitempty"`
}

// Decode copies the structured output into target
func (o *TaskOutput) Decode(target any) error {
	return decode(o.Structured, target)
}

// Markdown renders the output as a markdown document
func (o *TaskOutput) Markdown() string {
	builder := strings.Builder{}
	builder.WriteString("# " + o.Name + "\n\n")
	if o.Structured == nil {
		builder.WriteString(o.Raw + "\n")
		return builder.String()
	}
	data, err := json.MarshalIndent(o.Structured, "", "  ")
	if err != nil {
		builder.WriteString(o.Raw + "\n")
		return builder.String()
	}
	builder.WriteString("```json\n" + string(data) + "\n```\n")
	return builder.String()
}

// structure extracts and validates the JSON document of a structured reply
func structure(task string, output *OutputSpec, raw string) (map[string]any, error) {
	text := stripFence(raw)
	var ret map[string]any
	if err := json.Unmarshal([]byte(text), &ret); err != nil {
		return nil, &OutputError{Task: task, Raw: raw, Err: err}
	}
	if err := schema.Validate(output.Schema, ret); err != nil {
		return nil, &OutputError{Task: task, Raw: raw, Err: err}
	}
	return ret, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx != -1 {
		text = text[idx+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func decode(source map[string]any, target any) error {
	if source == nil {
		return fmt.Errorf("no structured output to decode")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(source)
}
