// Package history lists a test-taker's past attempts.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

// Limit caps how many attempts are loaded.
const Limit = 50

// Source loads past attempts, newest first.
type Source interface {
	History(ctx context.Context, identity string, limit int) ([]grading.Result, error)
}

type historyLoadedMsg struct {
	Attempts []grading.Result
	Err      error
}

// HistoryScreen displays past attempts with an expandable topic breakdown.
type HistoryScreen struct {
	ctx      context.Context
	source   Source
	identity string
	attempts []grading.Result
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen for identity.
func New(ctx context.Context, source Source, identity string) *HistoryScreen {
	return &HistoryScreen{
		ctx:      ctx,
		source:   source,
		identity: identity,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		attempts, err := s.source.History(s.ctx, s.identity, Limit)
		return historyLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Attempt History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Topics"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.attempts) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No attempts yet. Pick a stage to begin.")
	}

	var lines []string
	selectedLine := 0
	for i, r := range s.attempts {
		prefix := "  "
		if i == s.selected {
			prefix = "▸ "
			selectedLine = len(lines)
		}
		verdict := lipgloss.NewStyle().Foreground(theme.Error).Render("FAIL")
		if r.Passed {
			verdict = lipgloss.NewStyle().Foreground(theme.Success).Render("PASS")
		}
		line := fmt.Sprintf("%s%s   Stage %d   %2d/%d  %3d%%   ",
			prefix, r.Timestamp.Local().Format("Jan 02, 2006 15:04"), r.Stage, r.Correct, r.Total, r.Percentage)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)+verdict))

		if s.expanded[i] {
			if len(r.Topics) == 0 {
				lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("    No topic data")))
			}
			for _, name := range r.TopicNames() {
				ts := r.Topics[name]
				lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render(
						fmt.Sprintf("    %-28s %2d/%-2d  %3d%%", layout.Truncate(name, 28), ts.Correct, ts.Total, ts.Percent()))))
			}
		}
	}

	return "\n" + strings.Join(window(lines, selectedLine, height-1), "\n")
}

// window returns at most n lines of lines keeping focus visible.
func window(lines []string, focus, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}
	start := max(0, focus-n/2)
	if start+n > len(lines) {
		start = len(lines) - n
	}
	return lines[start : start+n]
}
