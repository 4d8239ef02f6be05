package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlas12288/atlas/cluster"
	"github.com/atlas12288/atlas/resonance"
)

// ClusterOptions holds flags for the cluster command.
type ClusterOptions struct {
	*RootOptions
	Class int
}

// clusterReport summarizes a CSR view; Coordinates is set only when a
// single class was requested.
type clusterReport struct {
	File        string   `json:"file"`
	Pages       int      `json:"pages"`
	Total       int      `json:"total"`
	Counts      []int    `json:"counts,omitempty"`
	Class       *int     `json:"class,omitempty"`
	Coordinates []uint32 `json:"coordinates,omitempty"`
}

func (r clusterReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "file:  %s\npages: %d\ntotal: %d\n", r.File, r.Pages, r.Total)
	if r.Class != nil {
		fmt.Fprintf(&b, "class %d coordinates: %v\n", *r.Class, r.Coordinates)
	} else {
		for class, count := range r.Counts {
			if count == 0 {
				continue
			}
			fmt.Fprintf(&b, "class %2d: %d\n", class, count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewClusterCommand creates the cluster command.
func NewClusterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClusterOptions{RootOptions: rootOpts, Class: -1}

	cmd := &cobra.Command{
		Use:   "cluster <file>",
		Short: "Build a CSR resonance-class index over a file's pages",
		Long: `Build a compressed-sparse-row index grouping every byte coordinate of a
file's full 256-byte pages by resonance class.

By default prints per-class population counts. With --class, prints the
ascending coordinates of one class instead.

Example:
  atlas cluster payload.bin
  atlas cluster payload.bin --class 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCluster(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Class, "class", -1, "print coordinates of this class only")

	return cmd
}

func runCluster(opts *ClusterOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	buf, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	pages := len(buf) / resonance.PageSize
	if pages == 0 {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("file holds %d bytes, need at least one full %d-byte page", len(buf), resonance.PageSize))
	}

	view, err := cluster.Build(buf, pages)
	if err != nil {
		return WrapExitError(ExitCommandError, "cluster build failed", err)
	}

	report := clusterReport{File: path, Pages: pages, Total: view.Len()}

	if opts.Class >= 0 {
		if opts.Class >= resonance.Classes {
			return NewExitError(ExitCommandError, fmt.Sprintf("--class %d out of range [0, 95]", opts.Class))
		}
		c := opts.Class
		report.Class = &c
		report.Coordinates = view.CoordinatesForClass(uint8(c))
	} else {
		counts := make([]int, resonance.Classes)
		for r := 0; r < resonance.Classes; r++ {
			counts[r] = view.CountForClass(uint8(r))
		}
		report.Counts = counts
	}

	return out.Success(report)
}
