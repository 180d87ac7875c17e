package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/knolhq/knol/pkg/compose"
	"github.com/knolhq/knol/pkg/invocation"
	"github.com/knolhq/knol/pkg/pipeline"
	"github.com/knolhq/knol/pkg/presenter"
)

type RunConfig struct {
	Output      string
	Strict      bool
	Concurrency int
}

func NewRunConfig() *RunConfig {
	return &RunConfig{
		Output:      "text",
		Strict:      false,
		Concurrency: 1,
	}
}

var runCmd = &cobra.Command{
	Use:   "run <invocation>",
	Short: "Compose a context payload from a topic and @module references",
	Long: `Compose a context payload from an invocation string. Words beginning
with the reference marker name knowledge modules to include; the remaining
words form the topic instruction.

Examples:
  knol run "Summarize the tradeoffs @duckdb @bigquery"
  knol run --output json "tune the planner @duckdb"
  knol run --strict "review @intro @missing"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getRunConfigFromFlags(cmd)
		if err := runInvocation(cmd, args, config); err != nil {
			presenter.Error(err, "failed to compose payload")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewRunConfig()
	runCmd.Flags().StringP("output", "o", defaults.Output, "Output format (text, json, yaml)")
	runCmd.Flags().Bool("strict", defaults.Strict, "Exit with an error when any referenced module is skipped")
	runCmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "Number of module references resolved in parallel")
}

func getRunConfigFromFlags(cmd *cobra.Command) *RunConfig {
	config := NewRunConfig()
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	if strict, err := cmd.Flags().GetBool("strict"); err == nil {
		config.Strict = strict
	}
	if concurrency, err := cmd.Flags().GetInt("concurrency"); err == nil && concurrency > 0 {
		config.Concurrency = concurrency
	}
	return config
}

func runInvocation(cmd *cobra.Command, args []string, config *RunConfig) error {
	ctx := cmd.Context()

	shutdown := initTracing(ctx)
	defer shutdown(ctx)

	moduleStore, cleanup, err := buildStore(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	families, err := loadFamilies()
	if err != nil {
		return errors.Wrap(err, "invalid sections configuration")
	}

	p, err := pipeline.New(moduleStore,
		pipeline.WithMarker(marker()),
		pipeline.WithFamilies(families...),
		pipeline.WithConcurrency(config.Concurrency),
	)
	if err != nil {
		return err
	}

	raw := strings.Join(args, " ")
	result, err := p.Process(ctx, raw)
	if err != nil {
		if errors.As(err, &invocation.EmptyInvocationError{}) {
			return errors.New("nothing to compose: the invocation is empty")
		}
		return err
	}

	if err := printResult(result, config.Output); err != nil {
		return err
	}

	if config.Strict && len(result.SkippedModules) > 0 {
		return errors.Errorf("%d referenced module(s) were skipped", len(result.SkippedModules))
	}

	return nil
}

// printResult writes the payload (or the full result for structured formats)
// to stdout; the skipped-module checklist goes through the presenter.
func printResult(result *compose.Result, format string) error {
	switch format {
	case "text":
		fmt.Println(result.Payload)
		presenter.SkippedReport(result.SkippedModules)
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal result")
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(result)
		if err != nil {
			return errors.Wrap(err, "failed to marshal result")
		}
		fmt.Print(string(out))
	default:
		return errors.Errorf("unknown output format %q (expected text, json, or yaml)", format)
	}
	return nil
}
