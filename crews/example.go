package crews

import (
	"context"

	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/tool/example"
)

// ExampleCrew is the name of the example crew
const ExampleCrew = "example"

// TaskOneOutput is the structured output of task_1
type TaskOneOutput struct {
	Key1 string         `json:"key_1" jsonschema:"required"`
	Key2 int            `json:"key_2" jsonschema:"required"`
	Key3 float64        `json:"key_3" jsonschema:"required"`
	Key4 []any          `json:"key_4" jsonschema:"required"`
	Key5 map[string]any `json:"key_5" jsonschema:"required"`
}

// TaskTwoOutput is the structured output of task_2
type TaskTwoOutput TaskOneOutput

// ExampleInputs are the external information passed to the example crew
type ExampleInputs struct {
	ExternalInfo1 string
	ExternalInfo2 string
	ExternalInfo3 string
}

// Map returns the kickoff inputs
func (i *ExampleInputs) Map() map[string]string {
	return map[string]string{
		"external_info_1": i.ExternalInfo1,
		"external_info_2": i.ExternalInfo2,
		"external_info_3": i.ExternalInfo3,
	}
}

// NewExample assembles the example crew: agent_1 researches with the example
// tool, agent_2 analyses the findings of task_1; planning is on.
func NewExample(ctx context.Context, deps *Deps) (*crew.Crew, error) {
	agentConfigs, taskConfigs, err := deps.Configs(ctx, ExampleCrew)
	if err != nil {
		return nil, err
	}
	agents := map[string]*crew.Agent{}
	for _, name := range []string{"agent_1", "agent_2"} {
		if agents[name], err = deps.agent(agentConfigs, name, example.Name); err != nil {
			return nil, err
		}
	}
	taskOneOutput, err := crew.OutputOf[TaskOneOutput]("TaskOneOutput")
	if err != nil {
		return nil, err
	}
	taskTwoOutput, err := crew.OutputOf[TaskTwoOutput]("TaskTwoOutput")
	if err != nil {
		return nil, err
	}
	taskOne, err := task(taskConfigs, "task_1", agents)
	if err != nil {
		return nil, err
	}
	taskTwo, err := task(taskConfigs, "task_2", agents)
	if err != nil {
		return nil, err
	}
	taskOne.WithOutput(taskOneOutput).WithOutputFile(timestamped(ExampleCrew+"/tasks", "task_1", "md"))
	taskTwo.WithContext("task_1").WithOutput(taskTwoOutput).WithOutputFile(timestamped(ExampleCrew+"/tasks", "task_2", "md"))
	return &crew.Crew{
		Name:     ExampleCrew,
		Agents:   []*crew.Agent{agents["agent_1"], agents["agent_2"]},
		Tasks:    []*crew.Task{taskOne, taskTwo},
		Process:  crew.ProcessSequential,
		Planning: true,
		Storage:  deps.Storage,
		LogFile:  timestamped(ExampleCrew+"/crew", "crew", "json"),
		Logger:   deps.logger(),
	}, nil
}

// RunExample kicks off the example crew
func RunExample(ctx context.Context, deps *Deps, inputs *ExampleInputs) (*crew.Result, error) {
	ret, err := NewExample(ctx, deps)
	if err != nil {
		return nil, err
	}
	return ret.Kickoff(ctx, inputs.Map())
}
