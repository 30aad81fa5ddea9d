package crews

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/crewflow/internal/logger"
	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/llm"
	"github.com/viant/crewflow/service/storage"
	"github.com/viant/crewflow/service/tool"
	"github.com/viant/crewflow/service/tool/example"
)

func newDeps(t *testing.T, baseURL string) *Deps {
	t.Helper()
	exampleTool, err := example.New()
	require.NoError(t, err)
	registry, err := tool.NewRegistry(exampleTool)
	require.NoError(t, err)
	return &Deps{
		Model:   llm.NewEcho(),
		Tools:   registry,
		Storage: storage.New(baseURL),
		Logger:  logger.Discard(),
	}
}

func TestRunExample(t *testing.T) {
	ctx := context.Background()
	deps := newDeps(t, "mem://localhost/crews_test/example")
	result, err := RunExample(ctx, deps, &ExampleInputs{ExternalInfo1: "one", ExternalInfo2: "two", ExternalInfo3: "three"})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 2)
	assert.NotEmpty(t, result.Plan)

	first := &TaskOneOutput{}
	require.NoError(t, result.Task("task_1").Decode(first))
	assert.Equal(t, "key_1", first.Key1)
	second := &TaskTwoOutput{}
	require.NoError(t, result.Decode(second))
	assert.Equal(t, "key_1", second.Key1)

	assets, err := deps.Storage.List(ctx, "example/tasks")
	require.NoError(t, err)
	assert.Len(t, assets, 2)
	assets, err = deps.Storage.List(ctx, "example/crew")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.True(t, strings.HasPrefix(assets[0].Name, "crew_"))
}

func TestRunAnalysis(t *testing.T) {
	deps := newDeps(t, "mem://localhost/crews_test/analysis")
	result, err := RunAnalysis(context.Background(), deps, &AnalysisInputs{ComplexData: "sales", AdditionalContext: "q3", TechnicalParameters: "p95"})
	require.NoError(t, err)
	synthesis := &IntegratedSynthesis{}
	require.NoError(t, result.Decode(synthesis))
	assert.Equal(t, "integrated_summary", synthesis.IntegratedSummary)
	analysis := &ComplexAnalysis{}
	require.NoError(t, result.Task("complex_analysis").Decode(analysis))
	assert.Equal(t, "main_category", analysis.MainCategory)
}

func TestRunReport(t *testing.T) {
	deps := newDeps(t, "mem://localhost/crews_test/report")
	report, result, err := RunReport(context.Background(), deps, "AI", "processed data")
	require.NoError(t, err)
	assert.Equal(t, "executive_summary", report.ExecutiveSummary)
	assert.Equal(t, "conclusion", report.Conclusion)
	assert.Contains(t, result.Tasks[0].File, "mem://localhost/crews_test/report/report/final_report_")
}

func TestRunReport_Scripted(t *testing.T) {
	deps := newDeps(t, "mem://localhost/crews_test/scripted")
	model := llm.NewScripted(
		`TOOL_CALL: {"name":"example_tool","arguments":{"argument_1":"AI","argument_2":"executives"}}`,
		`{"executive_summary":"AI grows","detailed_analysis":"details","key_insights":["a"],"recommendations":["b"],"conclusion":"done"}`,
	)
	deps.Model = model
	report, _, err := RunReport(context.Background(), deps, "AI", "processed data")
	require.NoError(t, err)
	assert.Equal(t, &FinalReport{
		ExecutiveSummary: "AI grows",
		DetailedAnalysis: "details",
		KeyInsights:      []any{"a"},
		Recommendations:  []any{"b"},
		Conclusion:       "done",
	}, report)
	requests := model.Requests()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[0].Prompt, "Write the final report about AI based on the processed data:")
	assert.Contains(t, requests[0].Prompt, "processed data")
}

func TestDeps_ConfigURL(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	baseURL := "mem://localhost/crews_test/config"
	configs := storage.New(baseURL, storage.WithFS(fs))
	_, err := configs.Write(ctx, "report/agents.yaml", []byte("report_analyst:\n  role: Custom analyst\n  goal: Report on {topic}\n"))
	require.NoError(t, err)
	_, err = configs.Write(ctx, "report/tasks.yaml", []byte("generate_report:\n  description: Report {topic} from {input_data}\n  expected_output: JSON\n  agent: report_analyst\n"))
	require.NoError(t, err)

	deps := newDeps(t, "mem://localhost/crews_test/custom")
	deps.FS = fs
	deps.ConfigURL = baseURL
	reportCrew, err := NewReport(ctx, deps)
	require.NoError(t, err)
	assert.Equal(t, "Custom analyst", reportCrew.Agents[0].Role)
	assert.Equal(t, []string{"input_data", "topic"}, reportCrew.Inputs())

	_, err = NewExample(ctx, deps)
	assert.Error(t, err)
}

func TestTask_UnknownAgent(t *testing.T) {
	tasks := crew.TaskConfigs{"t": {Description: "d", ExpectedOutput: "e", Agent: "ghost"}}
	_, err := task(tasks, "t", map[string]*crew.Agent{})
	var configErr *crew.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestDeps_NoModel(t *testing.T) {
	deps := newDeps(t, "mem://localhost/crews_test/nomodel")
	deps.Model = nil
	_, err := NewReport(context.Background(), deps)
	assert.Error(t, err)
}
