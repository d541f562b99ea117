package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/rendergraph/dot"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// dotOpts holds the command-line flags for the dot command.
type dotOpts struct {
	output   string // output file; stdout when empty
	format   string // dot or svg
	detailed bool   // list node links in labels
}

func (c *CLI) dotCommand() *cobra.Command {
	opts := dotOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "dot [frame]",
		Short: "Export the node dependency graph of a frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return fmt.Errorf("unknown format %q: want %s or %s", opts.format, formatDOT, formatSVG)
			}
			return c.runDot(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "list every link in node labels")

	return cmd
}

func (c *CLI) runDot(ctx context.Context, path string, opts *dotOpts) error {
	f, g, err := c.loadGraph(path, "", false)
	if err != nil {
		return err
	}

	out := []byte(dot.ToDOT(g, dot.Options{Detailed: opts.detailed, Title: f.Name}))
	if opts.format == formatSVG {
		prog := newProgress(c.Logger)
		if out, err = dot.RenderSVG(ctx, string(out)); err != nil {
			return fmt.Errorf("render %s: %w", f.Name, err)
		}
		prog.done("Rendered SVG")
	}

	if opts.output == "" {
		_, err := c.out.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	c.printSuccess("wrote %s", opts.output)
	return nil
}
