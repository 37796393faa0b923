package cmd

import (
	"io"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/mth101/cbt/internal/ui/theme"
)

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
)

// newTable returns a bordered table in the app's palette.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		}).
		Headers(headers...)
}

// printTable writes t to out, dropping colour when out is not a terminal.
func printTable(out io.Writer, t *table.Table) error {
	_, err := lipgloss.Fprintln(out, t.String())
	return err
}
