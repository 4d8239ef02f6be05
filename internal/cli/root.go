// Package cli implements the atlas command-line tools. Every command is a
// thin consumer of the public conservation, resonance, cluster, and schedule
// packages; no domain logic lives here.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the atlas CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "atlas",
		Short: "Atlas-12288 conservation and resonance tools",
		Long: "Tools for the Atlas-12288 conservation core: witness generation and\n" +
			"verification, mod-96 conservation checks, resonance classification,\n" +
			"CSR clustering, harmonic scheduling, and conformance scenarios.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewWitnessCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewDeltaCommand(opts))
	cmd.AddCommand(NewClassifyCommand(opts))
	cmd.AddCommand(NewClusterCommand(opts))
	cmd.AddCommand(NewWindowCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
