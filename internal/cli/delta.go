package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/conservation"
)

// deltaReport is the payload printed by the delta command.
type deltaReport struct {
	Before    string `json:"before"`
	After     string `json:"after"`
	Delta     uint8  `json:"delta"`
	Conserved bool   `json:"conserved"`
}

func (r deltaReport) String() string {
	return fmt.Sprintf("before:    %s\nafter:     %s\ndelta:     %d\nconserved: %v", r.Before, r.After, r.Delta, r.Conserved)
}

// NewDeltaCommand creates the delta command.
func NewDeltaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delta <before-file> <after-file>",
		Short: "Audit whether an edit preserved conservation",
		Long: `Compute the mod-96 conservation delta between two equal-length files.

A delta of 0 means the edit preserved conservation. Exit code 1 signals a
non-zero delta.

Example:
  atlas delta original.bin edited.bin`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelta(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runDelta(opts *RootOptions, beforePath, afterPath string, cmd *cobra.Command) error {
	out := formatter(opts, cmd.OutOrStdout())

	before, err := os.ReadFile(beforePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read before file", err)
	}
	after, err := os.ReadFile(afterPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read after file", err)
	}

	delta, err := conservation.Delta(before, after)
	if err != nil {
		out.Error(conservation.CodeOf(err).String(), err.Error(), nil)
		return WrapExitError(ExitCommandError, "delta computation failed", err)
	}

	report := deltaReport{Before: beforePath, After: afterPath, Delta: delta, Conserved: delta == 0}
	if err := out.Success(report); err != nil {
		return err
	}
	if !report.Conserved {
		return NewExitError(ExitFailure, conservation.CodeConservationViolation.String())
	}
	return nil
}
