package crews

import (
	"context"

	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/tool/example"
)

// ReportCrew is the name of the report crew
const ReportCrew = "report"

// FinalReport is the structured output of generate_report
type FinalReport struct {
	ExecutiveSummary string `json:"executive_summary" yaml:"executive_summary" jsonschema:"required"`
	DetailedAnalysis string `json:"detailed_analysis" yaml:"detailed_analysis" jsonschema:"required"`
	KeyInsights      []any  `json:"key_insights" yaml:"key_insights" jsonschema:"required"`
	Recommendations  []any  `json:"recommendations" yaml:"recommendations" jsonschema:"required"`
	Conclusion       string `json:"conclusion" yaml:"conclusion" jsonschema:"required"`
}

// NewReport assembles the single agent report crew
func NewReport(ctx context.Context, deps *Deps) (*crew.Crew, error) {
	agentConfigs, taskConfigs, err := deps.Configs(ctx, ReportCrew)
	if err != nil {
		return nil, err
	}
	analyst, err := deps.agent(agentConfigs, "report_analyst", example.Name)
	if err != nil {
		return nil, err
	}
	output, err := crew.OutputOf[FinalReport]("FinalReport")
	if err != nil {
		return nil, err
	}
	generate, err := task(taskConfigs, "generate_report", map[string]*crew.Agent{"report_analyst": analyst})
	if err != nil {
		return nil, err
	}
	generate.WithOutput(output).WithOutputFile(timestamped(ReportCrew, "final_report", "md"))
	return &crew.Crew{
		Name:    ReportCrew,
		Agents:  []*crew.Agent{analyst},
		Tasks:   []*crew.Task{generate},
		Process: crew.ProcessSequential,
		Storage: deps.Storage,
		Logger:  deps.logger(),
	}, nil
}

// RunReport kicks off the report crew and decodes the final report
func RunReport(ctx context.Context, deps *Deps, topic, inputData string) (*FinalReport, *crew.Result, error) {
	ret, err := NewReport(ctx, deps)
	if err != nil {
		return nil, nil, err
	}
	result, err := ret.Kickoff(ctx, map[string]string{"topic": topic, "input_data": inputData})
	if err != nil {
		return nil, nil, err
	}
	report := &FinalReport{}
	if err = result.Decode(report); err != nil {
		return nil, nil, err
	}
	return report, result, nil
}
