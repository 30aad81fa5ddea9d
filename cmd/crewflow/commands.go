package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/viant/crewflow"
	"github.com/viant/crewflow/internal/env"
	"github.com/viant/crewflow/internal/logger"
	"gopkg.in/yaml.v3"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Run      RunCmd      `cmd:"" help:"Run a flow."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration, flow graphs and crews."`
	Schema   SchemaCmd   `cmd:"" help:"Print the JSON schema of a flow state."`
	Runs     RunsCmd     `cmd:"" help:"List stored run summaries (requires output.runsURL)."`

	Config    string `short:"c" help:"Config file URL (YAML)."`
	EnvFile   string `name:"env-file" help:"Dotenv file loaded before the config." default:".env"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (text, json)."`

	out io.Writer
}

func (c *CLI) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

// config loads the .env file and the config, applying log flag overrides
func (c *CLI) config(ctx context.Context) (*crewflow.Config, error) {
	if _, err := env.LoadDotEnv(c.EnvFile); err != nil {
		return nil, err
	}
	cfg := crewflow.DefaultConfig()
	if c.Config != "" {
		var err error
		if cfg, err = crewflow.LoadConfig(ctx, nil, c.Config); err != nil {
			return nil, err
		}
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	return cfg, nil
}

func (c *CLI) service(ctx context.Context) (*crewflow.Service, error) {
	cfg, err := c.config(ctx)
	if err != nil {
		return nil, err
	}
	return crewflow.New(ctx, crewflow.WithConfig(cfg))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (v *VersionCmd) Run(cli *CLI) error {
	_, err := fmt.Fprintf(cli.stdout(), "crewflow version %s\n", crewflow.Version)
	return err
}

// RunCmd groups the flow commands.
type RunCmd struct {
	Report  ReportCmd  `cmd:"" help:"Run the report flow."`
	Routing RoutingCmd `cmd:"" help:"Run the routing flow."`
}

// ReportCmd runs the report flow.
type ReportCmd struct {
	Topic  string            `help:"Topic to report on." required:""`
	Input  map[string]string `help:"Additional inputs, e.g. external_info_1=..." placeholder:"KEY=VALUE"`
	Format string            `short:"f" help:"Output format: yaml, json." default:"yaml" enum:"yaml,json"`
}

func (r *ReportCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	srv, err := cli.service(ctx)
	if err != nil {
		return err
	}
	defer srv.Close()
	outcome, err := srv.Runtime().RunReport(ctx, r.Topic, r.Input)
	if err != nil {
		return err
	}
	return write(cli.stdout(), r.Format, &summary{RunID: outcome.RunID, Flow: outcome.Flow, Degraded: outcome.Degraded(), State: outcome.State})
}

// RoutingCmd runs the routing flow.
type RoutingCmd struct {
	Topic  string `help:"Topic to classify and process." required:""`
	Format string `short:"f" help:"Output format: yaml, json." default:"yaml" enum:"yaml,json"`
}

func (r *RoutingCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	srv, err := cli.service(ctx)
	if err != nil {
		return err
	}
	defer srv.Close()
	outcome, err := srv.Runtime().RunRouting(ctx, r.Topic)
	if err != nil {
		return err
	}
	return write(cli.stdout(), r.Format, &summary{RunID: outcome.RunID, Flow: outcome.Flow, Degraded: outcome.Degraded(), State: outcome.State})
}

// ValidateCmd validates the configuration, flow graphs and crews.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	srv, err := cli.service(ctx)
	if err != nil {
		return err
	}
	defer srv.Close()
	if err = srv.Runtime().Validate(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cli.stdout(), "configuration is valid (flows: %v)\n", strings.Join(srv.Runtime().Flows(), ", "))
	return err
}

// SchemaCmd prints the JSON schema of a flow state.
type SchemaCmd struct {
	Flow string `help:"Flow name." default:"routing" enum:"report,routing"`
}

func (s *SchemaCmd) Run(cli *CLI) error {
	srv, err := crewflow.New(context.Background(), crewflow.WithConfig(crewflow.DefaultConfig()), crewflow.WithLogger(logger.Discard()))
	if err != nil {
		return err
	}
	defer srv.Close()
	data, err := srv.Runtime().Schema(s.Flow)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.stdout(), string(data))
	return err
}

// RunsCmd lists stored run summaries.
type RunsCmd struct {
	Flow   string `help:"Only runs of this flow."`
	Format string `short:"f" help:"Output format: yaml, json." default:"yaml" enum:"yaml,json"`
}

func (r *RunsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	srv, err := cli.service(ctx)
	if err != nil {
		return err
	}
	defer srv.Close()
	runs, err := srv.Runtime().Runs(ctx, r.Flow)
	if err != nil {
		return err
	}
	return write(cli.stdout(), r.Format, runs)
}

type summary struct {
	RunID    string `json:"runId" yaml:"runId"`
	Flow     string `json:"flow" yaml:"flow"`
	Degraded bool   `json:"degraded" yaml:"degraded"`
	State    any    `json:"state" yaml:"state"`
}

func write(w io.Writer, format string, value any) error {
	var data []byte
	var err error
	if format == "json" {
		data, err = json.MarshalIndent(value, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(value)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
