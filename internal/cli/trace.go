package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/internal/ledger"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string
}

// traceReport dumps audit records from a ledger.
type traceReport struct {
	Database string          `json:"database"`
	Records  []ledger.Record `json:"records"`
}

func (r traceReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ledger: %s (%d records)\n", r.Database, len(r.Records))
	for _, rec := range r.Records {
		fmt.Fprintf(&b, "  seq %4d  %-8s %-10s residue=%2d  %s", rec.Seq, rec.Kind, rec.Status, rec.Residue, rec.Label)
		if rec.Digest != "" {
			fmt.Fprintf(&b, "  digest=%s", rec.Digest)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump the audit records of a conservation ledger",
		Long: `Dump the audit records of a conservation ledger in deterministic order
(seq ascending, then record ID).

Example:
  atlas trace --db audit.db
  atlas trace --db audit.db --run 0190c7a2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the audit ledger (required)")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "only records of this run token")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "ledger not found", err)
	}

	led, err := ledger.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer led.Close()

	ctx := context.Background()
	var records []ledger.Record
	if opts.RunToken != "" {
		records, err = led.ReadRun(ctx, opts.RunToken)
	} else {
		records, err = led.ReadAll(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger", err)
	}

	return out.Success(traceReport{Database: opts.Database, Records: records})
}
