package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/conservation"
	"github.com/atlas12288/atlas/modring"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Digest  string
	Residue int
}

// verifyReport is the payload printed by the verify command.
type verifyReport struct {
	File      string `json:"file"`
	Residue   uint8  `json:"residue"`
	Conserved bool   `json:"conserved"`
	Matched   *bool  `json:"matched,omitempty"`
}

func (r verifyReport) String() string {
	s := fmt.Sprintf("file:      %s\nresidue:   %d\nconserved: %v", r.File, r.Residue, r.Conserved)
	if r.Matched != nil {
		s += fmt.Sprintf("\nmatched:   %v", *r.Matched)
	}
	return s
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts, Residue: -1}

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a file's mod-96 conservation residue",
		Long: `Check a file's mod-96 conservation residue.

Without flags, reports the residue and whether the file is conserved
(residue 0). With --digest, additionally verifies the file against a witness
digest produced by 'atlas witness'. With --residue, checks against an
expected residue instead of 0.

Exit code 1 means the check failed; 2 means the command itself failed.

Example:
  atlas verify payload.bin
  atlas verify payload.bin --digest 3a7bd3...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Digest, "digest", "", "expected witness digest (hex)")
	cmd.Flags().IntVar(&opts.Residue, "residue", -1, "expected residue (default: require 0)")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	buf, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	residue := modring.Sum(buf)
	report := verifyReport{File: path, Residue: residue}

	wantResidue := uint8(0)
	if opts.Residue >= 0 {
		if opts.Residue > 95 {
			return NewExitError(ExitCommandError, fmt.Sprintf("--residue %d out of range [0, 95]", opts.Residue))
		}
		wantResidue = uint8(opts.Residue)
	}
	report.Conserved = residue == wantResidue

	passed := report.Conserved
	if opts.Digest != "" {
		w, err := conservation.GenerateWitness(buf)
		if err != nil {
			out.Error(conservation.CodeOf(err).String(), err.Error(), nil)
			return WrapExitError(ExitCommandError, "witness generation failed", err)
		}
		matched := w.Digest() == opts.Digest
		report.Matched = &matched
		passed = passed && matched
	}

	if err := out.Success(report); err != nil {
		return err
	}
	if !passed {
		code := conservation.CodeConservationViolation
		if report.Matched != nil && !*report.Matched {
			code = conservation.CodeWitnessFailed
		}
		return NewExitError(ExitFailure, code.String())
	}
	return nil
}
