package crews

import (
	"context"

	"github.com/viant/crewflow/service/crew"
	"github.com/viant/crewflow/service/tool/example"
)

// AnalysisCrew is the name of the analysis crew
const AnalysisCrew = "analysis"

// ComplexAnalysis is the structured output of complex_analysis
type ComplexAnalysis struct {
	MainCategory             string         `json:"main_category" jsonschema:"required"`
	ComplexityLevel          int            `json:"complexity_level" jsonschema:"required"`
	CriticalFactors          []any          `json:"critical_factors" jsonschema:"required"`
	RelevantMetrics          map[string]any `json:"relevant_metrics" jsonschema:"required"`
	TechnicalRecommendations []any          `json:"technical_recommendations" jsonschema:"required"`
}

// IntegratedSynthesis is the structured output of integrated_synthesis
type IntegratedSynthesis struct {
	IntegratedSummary       string         `json:"integrated_summary" jsonschema:"required"`
	ConvergencePoints       []any          `json:"convergence_points" jsonschema:"required"`
	DivergenceAreas         []any          `json:"divergence_areas" jsonschema:"required"`
	ConsolidatedConclusions map[string]any `json:"consolidated_conclusions" jsonschema:"required"`
	NextSteps               []any          `json:"next_steps" jsonschema:"required"`
}

// AnalysisInputs are the inputs of the analysis crew
type AnalysisInputs struct {
	ComplexData         string
	AdditionalContext   string
	TechnicalParameters string
}

// Map returns the kickoff inputs
func (i *AnalysisInputs) Map() map[string]string {
	return map[string]string{
		"complex_data":         i.ComplexData,
		"additional_context":   i.AdditionalContext,
		"technical_parameters": i.TechnicalParameters,
	}
}

// NewAnalysis assembles the analysis crew
func NewAnalysis(ctx context.Context, deps *Deps) (*crew.Crew, error) {
	agentConfigs, taskConfigs, err := deps.Configs(ctx, AnalysisCrew)
	if err != nil {
		return nil, err
	}
	agents := map[string]*crew.Agent{}
	if agents["analysis_specialist"], err = deps.agent(agentConfigs, "analysis_specialist", example.Name); err != nil {
		return nil, err
	}
	if agents["synthesis_integrator"], err = deps.agent(agentConfigs, "synthesis_integrator"); err != nil {
		return nil, err
	}
	analysisOutput, err := crew.OutputOf[ComplexAnalysis]("ComplexAnalysis")
	if err != nil {
		return nil, err
	}
	synthesisOutput, err := crew.OutputOf[IntegratedSynthesis]("IntegratedSynthesis")
	if err != nil {
		return nil, err
	}
	analysis, err := task(taskConfigs, "complex_analysis", agents)
	if err != nil {
		return nil, err
	}
	synthesis, err := task(taskConfigs, "integrated_synthesis", agents)
	if err != nil {
		return nil, err
	}
	analysis.WithOutput(analysisOutput).WithOutputFile(timestamped(AnalysisCrew+"/tasks", "complex_analysis", "md"))
	synthesis.WithContext("complex_analysis").WithOutput(synthesisOutput).WithOutputFile(timestamped(AnalysisCrew+"/tasks", "integrated_synthesis", "md"))
	return &crew.Crew{
		Name:     AnalysisCrew,
		Agents:   []*crew.Agent{agents["analysis_specialist"], agents["synthesis_integrator"]},
		Tasks:    []*crew.Task{analysis, synthesis},
		Process:  crew.ProcessSequential,
		Planning: true,
		Storage:  deps.Storage,
		LogFile:  timestamped(AnalysisCrew+"/crew", AnalysisCrew, "json"),
		Logger:   deps.logger(),
	}, nil
}

// RunAnalysis kicks off the analysis crew
func RunAnalysis(ctx context.Context, deps *Deps, inputs *AnalysisInputs) (*crew.Result, error) {
	ret, err := NewAnalysis(ctx, deps)
	if err != nil {
		return nil, err
	}
	return ret.Kickoff(ctx, inputs.Map())
}
