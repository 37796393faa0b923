// Package results shows the graded outcome of an exam attempt.
package results

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/screens/review"
	"github.com/mth101/cbt/internal/screens/victory"
	"github.com/mth101/cbt/internal/stage"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

// Details is what the exam screen knows about the attempt beyond the
// graded outcome.
type Details struct {
	Stage    stage.Config
	TimedOut bool
	Elapsed  time.Duration
	Name     string
}

// ResultsScreen displays the score, verdict and topic breakdown.
type ResultsScreen struct {
	outcome progress.Outcome
	details Details
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a ResultsScreen.
func New(outcome progress.Outcome, details Details) *ResultsScreen {
	return &ResultsScreen{outcome: outcome, details: details}
}

func (s *ResultsScreen) Init() tea.Cmd { return nil }

func (s *ResultsScreen) Title() string { return "Results" }

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	enter := "Stages"
	if s.outcome.Complete {
		enter = "Continue"
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: enter},
		{Key: "R", Description: "Review answers"},
		{Key: "Esc", Description: "Stages"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "enter":
		if s.outcome.Complete {
			v := victory.New(s.details.Name, s.outcome.Record)
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: v} }
		}
		return s, func() tea.Msg { return router.PopToRootMsg{} }
	case "r", "R":
		rv := review.New(s.details.Stage.Title, s.outcome.Review)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: rv} }
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	r := s.outcome.Result
	cfg := s.details.Stage
	cw := components.ContentWidth(width)
	center := func(st lipgloss.Style, text string) string {
		return st.Width(width).Align(lipgloss.Center).Render(text)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), cfg.Title))
	b.WriteString("\n")
	if s.details.TimedOut {
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Warning), "Time expired. Your answers were submitted automatically."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	verdict, verdictColor := "FAILED", theme.Error
	if r.Passed {
		verdict, verdictColor = "PASSED", theme.Success
	}
	b.WriteString(components.Centered(components.Badge(verdict, verdictColor), width))
	b.WriteString("\n\n")

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text).Bold(true),
		fmt.Sprintf("Score: %d/%d  (%d%%)", r.Correct, r.Total, r.Percentage)))
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim),
		fmt.Sprintf("Correct: %d    Wrong: %d    Unanswered: %d    Time: %s",
			r.Correct, r.Wrong, r.Unanswered(), formatElapsed(s.details.Elapsed))))
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim),
		"Required to pass: "+cfg.RequirementLabel()))
	b.WriteString("\n\n")

	b.WriteString(center(lipgloss.NewStyle().Foreground(verdictColor), s.nextStep()))
	b.WriteString("\n\n")

	if names := r.TopicNames(); len(names) > 0 {
		b.WriteString(components.Centered(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Topics"), width))
		b.WriteString("\n")
		b.WriteString(components.Centered(components.Divider(width), width))
		b.WriteString("\n")
		var topics strings.Builder
		labelWidth := 0
		for _, n := range names {
			labelWidth = max(labelWidth, lipgloss.Width(n))
		}
		labelWidth = min(labelWidth, cw/2)
		for _, n := range names {
			ts := r.Topics[n]
			label := fmt.Sprintf("%-*s %2d/%-2d", labelWidth, layout.Truncate(n, labelWidth), ts.Correct, ts.Total)
			bar := components.NewProgressBar(label, float64(ts.Percent())/100, true, cw)
			if ts.Percent() < int(cfg.PassPercentage) {
				bar.Fill = theme.Warning
			}
			topics.WriteString(bar.View())
			topics.WriteString("\n")
		}
		b.WriteString(components.Centered(topics.String(), width))
	}

	return b.String()
}

func (s *ResultsScreen) nextStep() string {
	r := s.outcome.Result
	switch {
	case s.outcome.Complete:
		return "All stages passed. Press Enter to continue."
	case r.Passed:
		if next, ok := s.outcome.Record.Slot(r.Stage + 1); ok && next.Unlocked {
			return fmt.Sprintf("Stage %d is now unlocked.", next.Stage.Number)
		}
		return "Stage passed."
	default:
		return fmt.Sprintf("You needed %d correct answers. Review your answers and try again.", s.details.Stage.PassMarks)
	}
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	return layout.FormatClock(int(d.Round(time.Second).Seconds()))
}
