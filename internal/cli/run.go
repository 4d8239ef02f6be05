package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/internal/harness"
)

// runReport summarizes a scenario execution.
type runReport struct {
	Scenario string               `json:"scenario"`
	RunToken string               `json:"run_token"`
	Passed   bool                 `json:"passed"`
	Failures []string             `json:"failures,omitempty"`
	Trace    []harness.TraceEvent `json:"trace"`
}

func (r runReport) String() string {
	var b strings.Builder
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "%s %s (run %s, %d steps)\n", status, r.Scenario, r.RunToken, len(r.Trace))
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "  - %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run conformance scenarios against the conservation core",
		Long: `Run one or more YAML conformance scenarios against the conservation core.

Each scenario is validated against the schema, executed with a fresh
in-memory ledger, and reported step by step. Exit code 1 means at least one
scenario failed; 2 means a scenario could not be loaded or executed.

Example:
  atlas run scenarios/lifecycle.yaml
  atlas run scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runScenarios(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	out := formatter(opts, cmd.OutOrStdout())

	failed := 0
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}

		slog.Info("running scenario", "name", scenario.Name, "steps", len(scenario.Steps))
		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run scenario", err)
		}
		if !result.Passed {
			failed++
		}

		report := runReport{
			Scenario: result.ScenarioName,
			RunToken: result.RunToken,
			Passed:   result.Passed,
			Failures: result.Failures,
			Trace:    result.Trace,
		}
		if err := out.Success(report); err != nil {
			return err
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(paths)))
	}
	return nil
}

// configureLogging sets the default slog handler level from --verbose.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
