package crew

// Result is the outcome of a crew kickoff
type Result struct {
	Crew       string         `json:"crew"`
	Raw        string         `json:"raw"`
	Structured map[string]any `json:"structured,omitempty"`
	Tasks      []*TaskOutput  `json:"tasks"`
	TokensUsed int            `json:"tokensUsed"`
	Plan       string         `json:"plan,omitempty"`
}

// Decode copies the structured output of the last task into target
func (r *Result) Decode(target any) error {
	return decode(r.Structured, target)
}

// Task returns the output of the named task
func (r *Result) Task(name string) *TaskOutput {
	for _, output := range r.Tasks {
		if output.Name == name {
			return output
		}
	}
	return nil
}

// Map returns the result as a generic document
func (r *Result) Map() map[string]any {
	ret := map[string]any{"crew": r.Crew, "raw": r.Raw, "tokens_used": r.TokensUsed}
	if r.Structured != nil {
		ret["structured"] = r.Structured
	}
	return ret
}
