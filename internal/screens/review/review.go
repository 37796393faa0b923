// Package review walks through a graded attempt question by question.
package review

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

// ReviewScreen shows each question with the chosen and correct answers.
type ReviewScreen struct {
	title     string
	items     []grading.ReviewItem
	visible   []int // indexes into items
	cursor    int
	wrongOnly bool
}

var _ screen.Screen = (*ReviewScreen)(nil)
var _ screen.KeyHintProvider = (*ReviewScreen)(nil)

// New creates a review of items under the given stage title.
func New(title string, items []grading.ReviewItem) *ReviewScreen {
	s := &ReviewScreen{title: title, items: items}
	s.filter()
	return s
}

func (s *ReviewScreen) Init() tea.Cmd { return nil }

func (s *ReviewScreen) Title() string { return "Answer Review" }

func (s *ReviewScreen) KeyHints() []layout.KeyHint {
	filter := "Missed only"
	if s.wrongOnly {
		filter = "Show all"
	}
	return []layout.KeyHint{
		{Key: "←→", Description: "Question"},
		{Key: "W", Description: filter},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ReviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "right", "l", "n", "down", "j":
		if s.cursor < len(s.visible)-1 {
			s.cursor++
		}
	case "left", "h", "p", "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "home", "g":
		s.cursor = 0
	case "end", "G":
		s.cursor = max(len(s.visible)-1, 0)
	case "w", "W":
		s.wrongOnly = !s.wrongOnly
		s.filter()
	}
	return s, nil
}

// filter rebuilds the visible list, keeping the cursor on the same item
// when it survives the filter.
func (s *ReviewScreen) filter() {
	current := -1
	if s.cursor < len(s.visible) {
		current = s.visible[s.cursor]
	}
	s.visible = s.visible[:0]
	for i, it := range s.items {
		if s.wrongOnly && it.Outcome == grading.OutcomeCorrect {
			continue
		}
		s.visible = append(s.visible, i)
	}
	s.cursor = 0
	for i, idx := range s.visible {
		if idx == current {
			s.cursor = i
		}
	}
}

// Current returns the item under the cursor.
func (s *ReviewScreen) Current() (grading.ReviewItem, bool) {
	if len(s.visible) == 0 {
		return grading.ReviewItem{}, false
	}
	return s.items[s.visible[s.cursor]], true
}

func (s *ReviewScreen) View(width, height int) string {
	it, ok := s.Current()
	if !ok {
		msg := "No questions to review."
		if s.wrongOnly {
			msg = "Every question was answered correctly."
		}
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n" + msg)
	}

	cw := components.ContentWidth(width)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Centered(lipgloss.NewStyle().Foreground(theme.TextDim).Render(
		fmt.Sprintf("%s  ·  Question %d of %d  ·  %s",
			s.title, it.Position+1, len(s.items), s.progressLabel())), width))
	b.WriteString("\n\n")

	var body strings.Builder
	if it.Question.Topic != "" {
		body.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(it.Question.Topic))
		body.WriteString("\n")
	}
	body.WriteString(lipgloss.NewStyle().Width(cw - 6).Foreground(theme.Text).Bold(true).Render(it.Question.Prompt))
	body.WriteString("\n\n")

	list := components.OptionList{
		Options: options(it),
		Chosen:  it.Chosen,
		Correct: it.Question.Correct,
		Reveal:  true,
	}
	body.WriteString(list.View(cw - 6))
	body.WriteString("\n")
	body.WriteString(components.Badge(outcomeLabel(it), outcomeColor(it.Outcome)))
	body.WriteString("\n\n")
	body.WriteString(lipgloss.NewStyle().Width(cw - 6).Foreground(theme.TextDim).Render(it.Explanation))

	b.WriteString(components.Centered(components.Panel(body.String(), cw, outcomeColor(it.Outcome)), width))
	return b.String()
}

func (s *ReviewScreen) progressLabel() string {
	if s.wrongOnly {
		return fmt.Sprintf("missed %d/%d", s.cursor+1, len(s.visible))
	}
	return fmt.Sprintf("%d/%d", s.cursor+1, len(s.visible))
}

func options(it grading.ReviewItem) []components.Option {
	keys := it.Question.OptionKeys()
	out := make([]components.Option, len(keys))
	for i, k := range keys {
		out[i] = components.Option{Key: k, Text: it.Question.Options[k]}
	}
	return out
}

func outcomeLabel(it grading.ReviewItem) string {
	switch it.Outcome {
	case grading.OutcomeCorrect:
		return "Correct"
	case grading.OutcomeWrong:
		return fmt.Sprintf("Wrong: you chose %s, answer is %s", it.Chosen, it.Question.Correct)
	default:
		return fmt.Sprintf("Not answered: answer is %s", it.Question.Correct)
	}
}

func outcomeColor(o grading.Outcome) color.Color {
	switch o {
	case grading.OutcomeCorrect:
		return theme.Success
	case grading.OutcomeWrong:
		return theme.Error
	default:
		return theme.Warning
	}
}
