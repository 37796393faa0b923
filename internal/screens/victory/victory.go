// Package victory congratulates a test-taker who has passed every stage.
package victory

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

const tickInterval = 150 * time.Millisecond

var confettiFrames = []string{"✦ · ✧ · ✦", "· ✧ · ✦ ·", "✧ · ✦ · ✧"}

type tickMsg time.Time

// VictoryScreen shows a completion certificate.
type VictoryScreen struct {
	name   string
	record progress.Record
	frame  int
}

var _ screen.Screen = (*VictoryScreen)(nil)
var _ screen.KeyHintProvider = (*VictoryScreen)(nil)

// New creates a VictoryScreen for name with their final record.
func New(name string, record progress.Record) *VictoryScreen {
	return &VictoryScreen{name: name, record: record}
}

func (v *VictoryScreen) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (v *VictoryScreen) Title() string { return "Course Complete" }

func (v *VictoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Back to stages"}}
}

func (v *VictoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		v.frame++
		return v, tick()
	case tea.KeyMsg:
		if msg.String() == "enter" {
			return v, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return v, nil
}

func (v *VictoryScreen) View(width, height int) string {
	confetti := lipgloss.NewStyle().Foreground(theme.Accent).Render(confettiFrames[v.frame%len(confettiFrames)])

	var cert strings.Builder
	cert.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("CERTIFICATE OF COMPLETION"))
	cert.WriteString("\n\n")
	cert.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("This certifies that"))
	cert.WriteString("\n")
	cert.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(v.name))
	cert.WriteString("\n")
	cert.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("has passed all stages of MTH101 Calculus I"))
	cert.WriteString("\n\n")

	var last time.Time
	for _, s := range v.record.Slots {
		if s.Result == nil {
			continue
		}
		cert.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(
			fmt.Sprintf("Stage %d  %-8s %d/%d  (%d%%)",
				s.Stage.Number, s.Stage.Difficulty.DisplayName(), s.Result.Correct, s.Result.Total, s.Result.Percentage)))
		cert.WriteString("\n")
		if s.Result.Timestamp.After(last) {
			last = s.Result.Timestamp
		}
	}
	if !last.IsZero() {
		cert.WriteString("\n")
		cert.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Completed " + last.Local().Format("January 2, 2006")))
	}

	cw := min(components.ContentWidth(width), 56)
	card := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Padding(1, 2).
		Render(cert.String())

	content := lipgloss.JoinVertical(lipgloss.Center, confetti, "", card, "", confetti)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
