// Command crewflow runs the crewflow example flows.
//
// Usage:
//
//	crewflow run report --topic "AI agents"
//	crewflow run routing --topic X --config crewflow.yaml
//	crewflow schema --flow routing
package main

import (
	"os"

	"github.com/alecthomas/kong"
)

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("crewflow"),
		kong.Description("Multi-agent workflow runner"),
		kong.UsageOnError(),
	)
	cli.out = os.Stdout
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
