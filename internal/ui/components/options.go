package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/ui/theme"
)

// Option is one lettered answer choice.
type Option struct {
	Key  string
	Text string
}

// OptionList renders a question's lettered options. During an exam the
// cursor moves with the arrows and Chosen marks the recorded answer. With
// Reveal set it shows Correct in green and a wrong Chosen in red.
type OptionList struct {
	Options []Option
	Cursor  int
	Chosen  string
	Correct string
	Reveal  bool
}

// NewOptionList creates a list with the cursor on chosen, or on the first
// option when nothing is chosen.
func NewOptionList(options []Option, chosen string) OptionList {
	l := OptionList{Options: options, Chosen: chosen}
	for i, o := range options {
		if o.Key == chosen {
			l.Cursor = i
		}
	}
	return l
}

// Update moves the cursor. Enter is left to the caller so it can decide
// what choosing means.
func (l OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if l.Reveal {
		return l, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if l.Cursor > 0 {
			l.Cursor--
		}
	case "down", "j":
		if l.Cursor < len(l.Options)-1 {
			l.Cursor++
		}
	}
	return l, nil
}

// CursorKey is the key of the option under the cursor.
func (l OptionList) CursorKey() string {
	if l.Cursor < 0 || l.Cursor >= len(l.Options) {
		return ""
	}
	return l.Options[l.Cursor].Key
}

// View renders the options wrapped to width.
func (l OptionList) View(width int) string {
	var b strings.Builder
	for i, o := range l.Options {
		prefix := "  "
		if i == l.Cursor && !l.Reveal {
			prefix = "▸ "
		}
		mark := "( )"
		if o.Key == l.Chosen {
			mark = "(●)"
		}
		line := fmt.Sprintf("%s%s %s. %s", prefix, mark, o.Key, o.Text)

		style := lipgloss.NewStyle().Width(width).Foreground(theme.Text)
		switch {
		case l.Reveal && o.Key == l.Correct:
			style = style.Foreground(theme.Success).Bold(true)
		case l.Reveal && o.Key == l.Chosen:
			style = style.Foreground(theme.Error).Bold(true)
		case l.Reveal:
			style = style.Foreground(theme.TextDim)
		case o.Key == l.Chosen:
			style = style.Foreground(theme.Secondary).Bold(true)
		case i == l.Cursor:
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
