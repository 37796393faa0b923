package stages

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

func (s *StagesScreen) View(width, height int) string {
	if !s.loaded {
		if s.errMsg != "" {
			return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Error).
				Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
		}
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading your progress...")
	}

	cw := components.ContentWidth(width)
	var sections []string

	greeting := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Welcome, " + s.profile.Name) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("  ·  "+s.profile.Department)
	sections = append(sections, greeting)

	passed := 0
	for _, slot := range s.record.Slots {
		if slot.Passed() {
			passed++
		}
	}
	total := max(len(s.record.Slots), 1)
	bar := components.NewProgressBar(fmt.Sprintf("Passed %d of %d", passed, len(s.record.Slots)),
		float64(passed)/float64(total), false, cw-6)
	if s.record.Complete() {
		bar.Fill = theme.Success
	}
	sections = append(sections, bar.View())

	if s.record.Complete() {
		sections = append(sections, theme.Correct.Render("All stages passed. Congratulations!"))
	}

	sections = append(sections, components.Panel(s.menu.View(), cw, theme.Border))

	if slot, ok := s.selectedSlot(); ok {
		sections = append(sections, components.Panel(renderDetails(slot), cw, theme.DifficultyColor(string(slot.Stage.Difficulty))))
	}

	if s.errMsg != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).Width(cw).Render(s.errMsg))
	}

	sep := "\n\n"
	if layout.IsCompactHeight(height) {
		sep = "\n"
	}
	content := strings.Join(sections, sep)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, "\n"+content)
}

// selectedSlot returns the stage under the cursor, if the cursor is on one.
func (s *StagesScreen) selectedSlot() (progress.Slot, bool) {
	if s.menu.Selected < len(s.record.Slots) {
		return s.record.Slots[s.menu.Selected], true
	}
	return progress.Slot{}, false
}

func renderDetails(slot progress.Slot) string {
	cfg := slot.Stage
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	text := lipgloss.NewStyle().Foreground(theme.Text)

	var b strings.Builder
	b.WriteString(components.Badge(cfg.Difficulty.DisplayName(), theme.DifficultyColor(string(cfg.Difficulty))))
	b.WriteString("  ")
	b.WriteString(statusBadge(slot))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", dim.Render("Questions:"), text.Render(fmt.Sprint(cfg.Questions)))
	fmt.Fprintf(&b, "%s %s\n", dim.Render("Time limit:"), text.Render(fmt.Sprintf("%d minutes", cfg.TimeLimit/60)))
	fmt.Fprintf(&b, "%s %s\n", dim.Render("Pass mark: "), text.Render(cfg.RequirementLabel()))
	if r := slot.Result; r != nil {
		fmt.Fprintf(&b, "%s %s  %s\n", dim.Render("Last score:"), text.Render(r.ScoreLabel()),
			dim.Render(r.Timestamp.Local().Format("Jan 02 15:04")))
	}
	if !slot.Unlocked {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Pass stage %d to unlock.", cfg.Number-1)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusBadge(slot progress.Slot) string {
	st := slot.Status()
	switch st {
	case progress.StatusPassed:
		return components.Badge(st.String(), theme.Success)
	case progress.StatusFailed:
		return components.Badge(st.String(), theme.Error)
	case progress.StatusUnlocked:
		return components.Badge("Ready", theme.Primary)
	default:
		return components.Badge(layout.Truncate(st.String(), 12), theme.Border)
	}
}
