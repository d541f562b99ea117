package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/rendergraph/recording"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - headings
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - barriers
	colorBlue   = lipgloss.Color("75")  // Light blue - rendering scopes
	colorWhite  = lipgloss.Color("255") // Bright white - commands
	colorDim    = lipgloss.Color("240") // Dim gray - binds and indices
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)

	styleBarrier = lipgloss.NewStyle().Foreground(colorYellow)
	styleScope   = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleBind    = lipgloss.NewStyle().Foreground(colorDim)
	styleCommand = lipgloss.NewStyle().Foreground(colorWhite)
)

const (
	iconSuccess = "✓"
	iconInfo    = "›"
)

func (c *CLI) printTitle(format string, args ...any) {
	fmt.Fprintln(c.out, styleTitle.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printSuccess(format string, args ...any) {
	fmt.Fprintln(c.out, styleSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printInfo(format string, args ...any) {
	fmt.Fprintln(c.out, styleDim.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printKeyValue prints an indented "key: value" line with the value
// highlighted.
func (c *CLI) printKeyValue(key string, value any) {
	fmt.Fprintf(c.out, "  %s %s\n", styleDim.Render(key+":"), styleNumber.Render(fmt.Sprint(value)))
}

// commandStyle picks the style of a command line by its type.
func commandStyle(t recording.CommandType) lipgloss.Style {
	switch t {
	case recording.CmdPipelineBarrier:
		return styleBarrier
	case recording.CmdBeginRendering, recording.CmdEndRendering:
		return styleScope
	case recording.CmdBindPipeline, recording.CmdBindDescriptorSets,
		recording.CmdSetViewport, recording.CmdSetScissor:
		return styleBind
	}
	return styleCommand
}

// printCommands prints one numbered line per command. Multi-line commands
// (barriers) keep their continuation lines under the first.
func (c *CLI) printCommands(cmds []recording.Command) {
	for i, cmd := range cmds {
		line := cmd.Type().String()
		if s, ok := cmd.(fmt.Stringer); ok {
			line = s.String()
		}
		style := commandStyle(cmd.Type())
		for j, part := range strings.Split(line, "\n") {
			prefix := "     "
			if j == 0 {
				prefix = styleDim.Render(fmt.Sprintf("%3d  ", i))
			}
			fmt.Fprintln(c.out, prefix+style.Render(part))
		}
	}
}
