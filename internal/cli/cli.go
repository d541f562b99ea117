// Package cli implements the rgdump command-line interface.
//
// rgdump loads a frame description (see package framefile), schedules it
// and shows the result: the linearized command stream with synthesized
// barriers (plan), or the node dependency graph as Graphviz (dot).
//
// # Logging
//
// All commands accept --verbose (-v). The CLI logger is a
// charmbracelet/log logger, installed as the rendergraph slog handler, so
// --verbose also surfaces the scheduler's hoist, defer and split
// decisions.
package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	rg "github.com/gogpu/rendergraph"
)

const appName = "rgdump"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	out    io.Writer
}

// New creates a CLI printing results to out and logging to logOut.
func New(out, logOut io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(logOut, level),
		out:    out,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "rgdump schedules render graph frames and shows the result",
		Long:         `rgdump loads a TOML or YAML frame description, schedules it through the render graph and prints the command stream with synthesized barriers, or exports the node dependency graph.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			rg.SetLogger(slog.New(c.Logger))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rg.SetLogger(nil)
		},
	}

	root.SetOut(c.out)
	root.SetVersionTemplate(versionTemplate())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.planCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.versionCommand())

	return root
}
