package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-tempo/playback/tempo"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report whether the host preserves pitch natively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		styles := newStyles(lipgloss.NewRenderer(out))

		native := tempo.SupportsPreservesPitch()
		value := styles.Good.Render(fmt.Sprint(native))
		if !native {
			value = styles.Warn.Render(fmt.Sprint(native))
		}
		fmt.Fprintln(out, styles.Label.Render("native pitch preservation:"), value)
		if !native {
			fmt.Fprintln(out, styles.Help.Render("the real-time tempo processor is required"))
		}
		return nil
	},
}

// styles holds the terminal styles used by command output.
type styles struct {
	Label lipgloss.Style
	Good  lipgloss.Style
	Warn  lipgloss.Style
	Help  lipgloss.Style
}

// newStyles derives styles for r, which picks the color profile of the
// writer it was created for. Non-terminal writers get plain text.
func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Label: r.NewStyle().Bold(true),
		Good:  r.NewStyle().Foreground(lipgloss.Color("#00ff9f")),
		Warn:  r.NewStyle().Foreground(lipgloss.Color("#ffaf00")),
		Help:  r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
}
