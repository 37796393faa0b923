// Package login collects the test-taker's name and department.
package login

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/screens/env"
	"github.com/mth101/cbt/internal/screens/stages"
	"github.com/mth101/cbt/internal/store"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
	"github.com/mth101/cbt/internal/ui/theme"
)

const fieldLimit = 64

type profilesLoadedMsg struct {
	Profiles []store.Profile
	Err      error
}

type savedMsg struct {
	Profile store.Profile
	Err     error
}

// LoginScreen signs a test-taker in. Known profiles can be recalled with
// Ctrl+R; the most recent one is prefilled.
type LoginScreen struct {
	env      *env.Env
	fields   [2]components.TextInput
	focus    int
	recent   []store.Profile
	recentAt int
	errMsg   string
	saving   bool
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a LoginScreen.
func New(e *env.Env) *LoginScreen {
	return &LoginScreen{
		env: e,
		fields: [2]components.TextInput{
			components.NewTextInput("Full name", "e.g. Ada Lovelace", fieldLimit),
			components.NewTextInput("Department", "e.g. Mathematics", fieldLimit),
		},
	}
}

func (l *LoginScreen) Init() tea.Cmd {
	ctx := l.env.Context()
	profiles := l.env.Profiles
	return tea.Batch(
		l.fields[0].Focus(),
		func() tea.Msg {
			ps, err := profiles.ListProfiles(ctx)
			return profilesLoadedMsg{Profiles: ps, Err: err}
		},
	)
}

func (l *LoginScreen) Title() string { return "Sign In" }

func (l *LoginScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Continue"},
	}
	if len(l.recent) > 1 {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "Recent"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (l *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profilesLoadedMsg:
		if msg.Err != nil {
			l.env.Log.Warn().Err(msg.Err).Msg("load profiles failed")
			return l, nil
		}
		l.recent = msg.Profiles
		// Prefill only if the user has not started typing.
		if len(l.recent) > 0 && l.fields[0].Value() == "" && l.fields[1].Value() == "" {
			l.fill(l.recent[0])
		}
		return l, nil

	case savedMsg:
		l.saving = false
		if msg.Err != nil {
			l.errMsg = msg.Err.Error()
			return l, nil
		}
		l.env.Log.Info().Str("identity", msg.Profile.Identity()).Msg("signed in")
		next := stages.New(l.env, msg.Profile)
		return l, func() tea.Msg { return router.ResetMsg{Screen: next} }

	case tea.KeyMsg:
		if l.saving {
			return l, nil
		}
		switch msg.String() {
		case "tab", "down":
			return l, l.setFocus(l.focus + 1)
		case "shift+tab", "up":
			return l, l.setFocus(l.focus - 1)
		case "ctrl+r":
			if len(l.recent) > 0 {
				l.recentAt = (l.recentAt + 1) % len(l.recent)
				l.fill(l.recent[l.recentAt])
			}
			return l, nil
		case "enter":
			if l.focus == 0 && strings.TrimSpace(l.fields[1].Value()) == "" {
				return l, l.setFocus(1)
			}
			return l, l.submit()
		}
	}

	var cmd tea.Cmd
	l.fields[l.focus], cmd = l.fields[l.focus].Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		l.errMsg = ""
	}
	return l, cmd
}

func (l *LoginScreen) fill(p store.Profile) {
	l.fields[0].SetValue(p.Name)
	l.fields[1].SetValue(p.Department)
}

func (l *LoginScreen) setFocus(i int) tea.Cmd {
	l.focus = (i + len(l.fields)) % len(l.fields)
	var cmd tea.Cmd
	for j := range l.fields {
		if j == l.focus {
			cmd = l.fields[j].Focus()
		} else {
			l.fields[j].Blur()
		}
	}
	return cmd
}

func (l *LoginScreen) submit() tea.Cmd {
	p, err := store.NormalizeProfile(store.Profile{
		Name:       l.fields[0].Value(),
		Department: l.fields[1].Value(),
	})
	if err != nil {
		l.errMsg = err.Error()
		return nil
	}
	l.saving = true
	ctx := l.env.Context()
	profiles := l.env.Profiles
	return func() tea.Msg {
		if err := profiles.SaveProfile(ctx, p); err != nil {
			return savedMsg{Err: err}
		}
		return savedMsg{Profile: p}
	}
}

func (l *LoginScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 56)

	var form strings.Builder
	form.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("MTH101 Calculus I"))
	form.WriteString("\n")
	form.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Sign in to continue your progress."))
	form.WriteString("\n\n")
	for i, f := range l.fields {
		f.Model.SetWidth(cw - 10)
		form.WriteString(f.View())
		if i < len(l.fields)-1 {
			form.WriteString("\n\n")
		}
	}
	form.WriteString("\n\n")
	form.WriteString(components.NewButton("Continue", l.focus == len(l.fields)-1).View())

	if l.errMsg != "" {
		form.WriteString("\n\n")
		form.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(l.errMsg))
	}
	if l.saving {
		form.WriteString("\n\n")
		form.WriteString(theme.Hint.Render("Signing in..."))
	}

	panel := components.Panel(form.String(), cw, theme.Primary)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
