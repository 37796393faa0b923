package components

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for stacked panels so
// their borders line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Panel wraps content in a rounded-border card at the given content width.
func Panel(content string, cw int, border color.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(cw - 2).
		Padding(0, 2).
		Render(content)
}

// Badge renders a short inline label on a colored background.
func Badge(label string, bg color.Color) string {
	return lipgloss.NewStyle().
		Foreground(theme.BgDark).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// Centered places every line of s in the middle of width.
func Centered(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

// Divider renders a horizontal rule no wider than 60 cells.
func Divider(width int) string {
	return lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", max(min(width-8, 60), 0)))
}

// Confirm renders a centered yes/no prompt. yes and no label the two
// buttons; the yes button is drawn active.
func Confirm(title, detail, yes, no string, width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(title))
	b.WriteString("\n")
	if detail != "" {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render(detail))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		NewButton("[Y] "+yes, true).View(),
		"   ",
		NewButton("[N] "+no, false).View(),
	)
	b.WriteString(Centered(buttons, width))
	return b.String()
}
