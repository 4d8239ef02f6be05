package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/conservation"
	"github.com/atlas12288/atlas/internal/harness"
	"github.com/atlas12288/atlas/internal/ledger"
	"github.com/atlas12288/atlas/schedule"
)

// WitnessOptions holds flags for the witness command.
type WitnessOptions struct {
	*RootOptions
	Database string
}

// witnessReport is the payload printed by the witness command.
type witnessReport struct {
	File    string `json:"file"`
	Digest  string `json:"digest"`
	Residue uint8  `json:"residue"`
	Length  int    `json:"length"`
}

func (r witnessReport) String() string {
	return fmt.Sprintf("file:    %s\ndigest:  %s\nresidue: %d\nlength:  %d", r.File, r.Digest, r.Residue, r.Length)
}

// NewWitnessCommand creates the witness command.
func NewWitnessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WitnessOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "witness <file>",
		Short: "Generate an integrity witness over a file's bytes",
		Long: `Generate an integrity witness over a file's bytes.

The witness digest is deterministic: the same bytes always produce the same
digest. Pass --db to append the generation to an audit ledger.

Example:
  atlas witness payload.bin
  atlas witness payload.bin --db audit.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWitness(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "append the witness record to this audit ledger")

	return cmd
}

func runWitness(opts *WitnessOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	buf, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	w, err := conservation.GenerateWitness(buf)
	if err != nil {
		out.Error(conservation.CodeOf(err).String(), err.Error(), nil)
		return WrapExitError(ExitCommandError, "witness generation failed", err)
	}

	if opts.Database != "" {
		if err := appendWitnessRecord(opts.Database, path, w); err != nil {
			return WrapExitError(ExitCommandError, "failed to append audit record", err)
		}
	}

	return out.Success(witnessReport{
		File:    path,
		Digest:  w.Digest(),
		Residue: w.Residue(),
		Length:  w.Length(),
	})
}

func appendWitnessRecord(dbPath, label string, w *conservation.Witness) error {
	led, err := ledger.Open(dbPath)
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := context.Background()
	last, err := led.LastSeq(ctx)
	if err != nil {
		return err
	}
	clock := schedule.NewClockAt(last)

	_, err = led.Append(ctx, ledger.Record{
		RunToken: harness.UUIDv7Generator{}.Generate(),
		Label:    label,
		Kind:     ledger.KindWitness,
		Seq:      clock.Next(),
		Residue:  w.Residue(),
		Digest:   w.Digest(),
		Status:   conservation.CodeOK.String(),
	})
	return err
}
