package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/crews"
	"github.com/viant/crewflow/internal/logger"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/orchestrator"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/storage"
	"github.com/viant/crewflow/service/tool"
	"github.com/viant/crewflow/service/tool/example"
)

func newDeps(t *testing.T, model llm.Model, baseURL string) *crews.Deps {
	t.Helper()
	exampleTool, err := example.New()
	require.NoError(t, err)
	registry, err := tool.NewRegistry(exampleTool)
	require.NoError(t, err)
	return &crews.Deps{Model: model, Tools: registry, Storage: storage.New(baseURL), Logger: logger.Discard()}
}

func failingModel(ctx context.Context, request *llm.Request) (*llm.Response, error) {
	return nil, errors.New("model unavailable")
}

func TestFlow_Run(t *testing.T) {
	flow, err := New(newDeps(t, llm.NewEcho(), "mem://localhost/report_flow/run")).Build(orchestrator.WithLogger(logger.Discard()))
	require.NoError(t, err)
	assert.Equal(t, Name, flow.Name())
	assert.Equal(t, StepStart, flow.Start())
	assert.Equal(t, []string{StepFinalize}, flow.Terminals())

	outcome, err := flow.Execute(context.Background(), State{Topic: "AI agents"})
	require.NoError(t, err)
	actual := outcome.State
	assert.False(t, outcome.Degraded())
	assert.Equal(t, []string{StepStart, StepPrepareExternalInfo, StepRunExampleCrew, StepGenerateFinalReport, StepFinalize}, actual.Trail)
	assert.Equal(t, "Main context about 'AI agents'", actual.ExternalInfo1)
	assert.Equal(t, "Complementary data related to 'AI agents'", actual.ExternalInfo2)
	assert.Equal(t, "Additional information relevant to 'AI agents'", actual.ExternalInfo3)
	assert.Equal(t, crews.ExampleCrew, actual.CrewResult["crew"])
	assert.Contains(t, actual.FinalReport, `"executive_summary":"executive_summary"`)
}

func TestFlow_Start(t *testing.T) {
	f := New(nil)
	actual, err := f.start(context.Background(), State{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, actual.Topic)
	assert.Equal(t, "Initial context about "+DefaultTopic, actual.ExternalInfo1)

	actual, err = f.start(context.Background(), State{Topic: "go", ExternalInfo1: "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", actual.ExternalInfo1)
}

func TestFlow_Degrade(t *testing.T) {
	flow, err := New(newDeps(t, llm.Func(failingModel), "mem://localhost/report_flow/degrade")).Build(orchestrator.WithLogger(logger.Discard()))
	require.NoError(t, err)

	outcome, err := flow.Execute(context.Background(), State{Topic: "AI agents"})
	require.NoError(t, err)
	actual := outcome.State
	assert.True(t, outcome.Degraded())
	assert.Equal(t, []string{StepGenerateFinalReport, StepRunExampleCrew}, actual.Degraded())
	assert.Equal(t, FallbackResult, actual.CrewResult["fallback_result"])
	assert.Contains(t, actual.CrewResult["error"], "model unavailable")
	assert.Contains(t, actual.FinalReport, "Could not generate the report: ")
	assert.Contains(t, actual.FinalReport, "model unavailable")
	assert.True(t, actual.Visited(StepFinalize))
}

func TestFlow_Abort(t *testing.T) {
	flow, err := New(newDeps(t, llm.Func(failingModel), "mem://localhost/report_flow/abort")).Build(
		orchestrator.WithLogger(logger.Discard()),
		orchestrator.WithPolicy(&policy.Policy{Mode: policy.ModeAbort}),
	)
	require.NoError(t, err)

	_, err = flow.Run(context.Background(), State{Topic: "AI agents"})
	var failure *orchestrator.StepExecutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, StepRunExampleCrew, failure.Step)
}

func TestSchema_RoundTrip(t *testing.T) {
	expect := State{
		Topic:         "go",
		ExternalInfo1: "one",
		CrewResult:    map[string]any{"crew": "example", "raw": "done"},
		FinalReport:   "report",
	}
	expect.Journal = expect.Journal.With([]string{StepStart}, map[string]string{StepRunExampleCrew: "boom"})
	data, err := Schema().Encode(expect)
	require.NoError(t, err)
	actual, err := Schema().Decode(data)
	require.NoError(t, err)
	assert.Equal(t, expect, actual)
}
