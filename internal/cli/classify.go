package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/resonance"
)

// ClassifyOptions holds flags for the classify command.
type ClassifyOptions struct {
	*RootOptions
	Page int
}

// classifyReport is the payload printed by the classify command.
type classifyReport struct {
	File      string                    `json:"file"`
	Page      int                       `json:"page"`
	Histogram [resonance.Classes]uint16 `json:"histogram"`
}

func (r classifyReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "file: %s\npage: %d\n", r.File, r.Page)
	for class, count := range r.Histogram {
		if count == 0 {
			continue
		}
		fmt.Fprintf(&b, "class %2d: %d\n", class, count)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Histogram one 256-byte page by resonance class",
		Long: `Histogram one 256-byte page of a file by resonance class (byte mod 96).

Text output lists only the classes present on the page; JSON output carries
the full 96-entry histogram. The histogram always sums to 256.

Example:
  atlas classify payload.bin --page 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number to classify")

	return cmd
}

func runClassify(opts *ClassifyOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	buf, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	// Bound the page number before computing a byte offset so an absurd
	// --page value cannot overflow the multiplication.
	pages := len(buf) / resonance.PageSize
	if opts.Page < 0 || opts.Page >= pages {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("file holds %d full pages, page %d requested", pages, opts.Page))
	}
	start := opts.Page * resonance.PageSize

	var page [resonance.PageSize]byte
	copy(page[:], buf[start:start+resonance.PageSize])

	return out.Success(classifyReport{
		File:      path,
		Page:      opts.Page,
		Histogram: resonance.HistogramPage(&page),
	})
}
