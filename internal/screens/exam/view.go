package exam

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

const gridColumns = 10

func (s *ExamScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.timeUp:
		return renderNotice(width, "Time's up!", "Submitting your answers...")
	case s.finishing:
		return renderNotice(width, "Submitting", "Grading your answers...")
	case s.confirmQuit:
		return components.Confirm("Leave this exam?",
			"The attempt will be discarded and nothing is recorded.", "Yes, leave", "No, keep going", width)
	case s.confirmSubmit > 0:
		return components.Confirm(
			fmt.Sprintf("You have %d unanswered question(s).", s.confirmSubmit),
			"Unanswered questions count as wrong. Submit anyway?", "Submit", "Keep working", width)
	}
	return s.renderQuestionView(width, height)
}

// renderQuestionView renders the status line, the current question and,
// when there is room, the question grid.
func (s *ExamScreen) renderQuestionView(width, height int) string {
	sn := s.sess.Snapshot()

	var b strings.Builder
	b.WriteString(renderStatusLine(sn, width))
	b.WriteString("\n")
	if sn.Warned && sn.Remaining > 0 {
		b.WriteString(theme.Banner.Foreground(theme.BgDark).Background(theme.Warning).Width(width).
			Render("⚠ " + warningText(sn.Remaining)))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	grid := renderGrid(sn)
	gridWidth := lipgloss.Width(grid)
	side := !layout.IsCompactWidth(width) && width-gridWidth-6 >= 50
	qWidth := width - 4
	if side {
		qWidth = width - gridWidth - 6
	}

	var q strings.Builder
	if sn.Question.Topic != "" {
		q.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(sn.Question.Topic))
		q.WriteString("\n")
	}
	q.WriteString(lipgloss.NewStyle().Width(qWidth).Foreground(theme.Text).Bold(true).Render(sn.Question.Prompt))
	q.WriteString("\n\n")
	q.WriteString(s.options.View(qWidth))
	if sn.Flagged {
		q.WriteString("\n")
		q.WriteString(theme.Flagged.Render("⚑ Flagged for review"))
	}
	main := lipgloss.NewStyle().PaddingLeft(2).Render(q.String())

	used := lipgloss.Height(b.String())
	switch {
	case side:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, main, "   ", grid))
	case used+lipgloss.Height(main)+lipgloss.Height(grid)+1 <= height:
		b.WriteString(main)
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(grid))
	default:
		b.WriteString(main)
	}
	return b.String()
}

func renderStatusLine(sn session.Snapshot, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Question %d of %d", sn.Position+1, sn.Total))

	flagged := 0
	for _, f := range sn.Flags {
		if f {
			flagged++
		}
	}
	stats := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Answered %d/%d   Flagged %d   ", sn.AnsweredCount(), sn.Total, flagged))
	clock := lipgloss.NewStyle().
		Foreground(theme.ClockColor(sn.Remaining, session.WarningAt)).
		Bold(true).
		Render("⏱ " + layout.FormatClock(sn.Remaining))
	right := stats + clock

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 2; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	} else {
		line += "  " + clock
	}
	return line
}

func warningText(remaining int) string {
	if remaining <= 60 {
		return "Less than a minute remaining"
	}
	return fmt.Sprintf("%d minutes remaining", (remaining+59)/60)
}

// renderGrid draws one cell per question: the current position highlighted,
// answered in green, flagged in orange.
func renderGrid(sn session.Snapshot) string {
	var b strings.Builder
	for i := 0; i < sn.Total; i++ {
		label := fmt.Sprintf("%2d", i+1)
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		switch {
		case i == sn.Position:
			style = style.Foreground(theme.BgDark).Background(theme.Primary).Bold(true)
		case sn.Flags[i]:
			style = theme.Flagged
		case sn.Answered[i]:
			style = style.Foreground(theme.Success)
		}
		b.WriteString(style.Render(label))
		if (i+1)%gridColumns == 0 || i == sn.Total-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	legend := lipgloss.NewStyle().Foreground(theme.Success).Render("■") + " answered  " +
		theme.Flagged.Render("■") + " flagged"
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(legend))
	return b.String()
}

func renderNotice(width int, title, detail string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Warning).Bold(true).
		Render("\n\n\n"+title) + "\n" +
		lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Render(detail)
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  Could not record your result: %s\n\n  Press R to retry or Esc to return to the stages.", errMsg))
}
