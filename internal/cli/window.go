package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/schedule"
)

// WindowOptions holds flags for the window command.
type WindowOptions struct {
	*RootOptions
	Now   int64
	Class int
	Count int
}

// windowReport lists the next harmonic windows for a class.
type windowReport struct {
	Now     int64   `json:"now"`
	Class   int     `json:"class"`
	Windows []int64 `json:"windows"`
}

func (r windowReport) String() string {
	return fmt.Sprintf("now:     %d\nclass:   %d\nwindows: %v", r.Now, r.Class, r.Windows)
}

// NewWindowCommand creates the window command.
func NewWindowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WindowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Compute the next harmonic windows for a resonance class",
		Long: `Compute the next harmonically aligned time slots for a resonance class.

Each window w satisfies (w + class) mod 96 == 0 and is strictly after the
previous one; an aligned 'now' advances a full cycle rather than zero.

Example:
  atlas window --now 1000 --class 42 --count 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Now, "now", 0, "current time on the logical axis")
	cmd.Flags().IntVar(&opts.Class, "class", 0, "resonance class (0-95)")
	cmd.Flags().IntVar(&opts.Count, "count", 1, "number of consecutive windows")

	return cmd
}

func runWindow(opts *WindowOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	if opts.Class < 0 || opts.Class > 95 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--class %d out of range [0, 95]", opts.Class))
	}
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--count %d must be at least 1", opts.Count))
	}

	report := windowReport{Now: opts.Now, Class: opts.Class}
	now := opts.Now
	for i := 0; i < opts.Count; i++ {
		now = schedule.NextWindowFrom(now, uint8(opts.Class))
		report.Windows = append(report.Windows, now)
	}

	return out.Success(report)
}
