// Package example provides a demonstration tool that combines internal steps
// into one organised answer.
package example

import (
	"context"

	"github.com/viant/crewflow/service/tool"
)

// Name is the tool name agents refer to
const Name = "example_tool"

// Description explains the tool to humans and models
const Description = `A demonstration tool that combines internal methods into one organised result.
Example input: argument_1="financial report", argument_2="short term".
Example output: "Organize the information returned by the internal methods: internal method 1 internal method 2"`

// Input holds the tool arguments
type Input struct {
	Argument1 string `json:"argument_1" jsonschema:"required,description=Main context of the execution e.g. financial report or AI trends"`
	Argument2 string `json:"argument_2" jsonschema:"required,description=Refinement of the first argument e.g. short term or for lay readers"`
}

// New creates the example tool
func New() (tool.Tool, error) {
	return tool.New[Input](Name, Description, run)
}

func run(ctx context.Context, in *Input) (string, error) {
	return combine(), nil
}

func firstMethod() string { return "internal method 1" }

func secondMethod() string { return "internal method 2" }

func combine() string {
	return "Organize the information returned by the internal methods: " + firstMethod() + " " + secondMethod()
}
