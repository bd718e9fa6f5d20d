package nav

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	activeStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	childActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#86EFAC"))
	plainStyle       = lipgloss.NewStyle()
	mutedStyle       = lipgloss.NewStyle().Faint(true)
	frameStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#64748B")).
				Padding(0, 1)
)

// RenderText draws the sidebar for terminals.
func RenderText(sb Sidebar) string {
	var lines []string
	if len(sb.Nodes) == 0 {
		lines = append(lines, mutedStyle.Render("No menus available."))
	}
	for _, v := range sb.Nodes {
		lines = appendLines(lines, v, sb.Collapsed)
	}
	header := mutedStyle.Render(sb.Location)
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, lines...)...))
}

func appendLines(lines []string, v *NodeView, collapsed bool) []string {
	style := plainStyle
	switch {
	case v.Active:
		style = activeStyle
	case v.ChildActive:
		style = childActiveStyle
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("  ", v.Depth))
	b.WriteString(v.Icon.Glyph())
	if !collapsed {
		b.WriteString(" ")
		b.WriteString(v.Label)
		if v.Branch {
			if v.Open {
				b.WriteString(" ▾")
			} else {
				b.WriteString(" ▸")
			}
		} else if v.Route != "" {
			b.WriteString(mutedStyle.Render("  " + v.Route))
		}
	}
	lines = append(lines, style.Render(b.String()))

	for _, child := range v.Children {
		lines = appendLines(lines, child, collapsed)
	}
	return lines
}
