// Package stages is the stage-selection dashboard shown after sign-in.
package stages

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/screens/env"
	"github.com/mth101/cbt/internal/screens/exam"
	"github.com/mth101/cbt/internal/screens/history"
	"github.com/mth101/cbt/internal/screens/victory"
	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/store"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
)

type recordLoadedMsg struct {
	Record progress.Record
	Err    error
}

type startedMsg struct {
	Session *session.Session
	Err     error
}

// StagesScreen lists the stages with their lock state and last result.
type StagesScreen struct {
	env     *env.Env
	profile store.Profile
	record  progress.Record
	loaded  bool
	menu    components.Menu
	errMsg  string
	// starting guards against double-starting while Engine.Start runs.
	starting bool
}

var _ screen.Screen = (*StagesScreen)(nil)
var _ screen.KeyHintProvider = (*StagesScreen)(nil)
var _ screen.Resumer = (*StagesScreen)(nil)

// New creates a StagesScreen for a signed-in profile.
func New(e *env.Env, profile store.Profile) *StagesScreen {
	return &StagesScreen{env: e, profile: profile}
}

func (s *StagesScreen) Init() tea.Cmd {
	p := s.profile
	return tea.Batch(
		func() tea.Msg { return screen.SignedInMsg{Name: p.Name, Department: p.Department} },
		s.loadRecord(),
	)
}

// Resume reloads progress after an exam or review is popped.
func (s *StagesScreen) Resume() tea.Cmd {
	s.starting = false
	return s.loadRecord()
}

func (s *StagesScreen) loadRecord() tea.Cmd {
	ctx := s.env.Context()
	ctrl := s.env.Progress
	identity := s.profile.Identity()
	return func() tea.Msg {
		rec, err := ctrl.Record(ctx, identity)
		return recordLoadedMsg{Record: rec, Err: err}
	}
}

func (s *StagesScreen) Title() string { return "Select Stage" }

func (s *StagesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *StagesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case recordLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.env.Log.Error().Err(msg.Err).Str("identity", s.profile.Identity()).Msg("load progress failed")
			return s, nil
		}
		s.errMsg = ""
		s.record = msg.Record
		s.loaded = true
		s.rebuildMenu()
		return s, nil

	case startedMsg:
		s.starting = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		ex := exam.New(s.env, s.profile.Identity(), msg.Session)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: ex} }
	}

	if !s.loaded {
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

// rebuildMenu recreates the menu from the record, keeping the cursor on
// the same row.
func (s *StagesScreen) rebuildMenu() {
	prev := s.menu.Selected
	hadItems := len(s.menu.Items) > 0

	var items []components.MenuItem
	for _, slot := range s.record.Slots {
		n := slot.Stage.Number
		items = append(items, components.MenuItem{
			Label:    slot.Stage.Title,
			Detail:   statusDetail(slot),
			Disabled: !slot.Unlocked,
			Action:   func() tea.Cmd { return s.start(n) },
		})
	}
	if s.record.Complete() {
		items = append(items, components.MenuItem{Label: "View certificate", Action: func() tea.Cmd {
			v := victory.New(s.profile.Name, s.record)
			return func() tea.Msg { return router.PushScreenMsg{Screen: v} }
		}})
	}
	items = append(items,
		components.MenuItem{Label: "Attempt history", Action: func() tea.Cmd {
			h := history.New(s.env.Context(), s.env.Progress, s.profile.Identity())
			return func() tea.Msg { return router.PushScreenMsg{Screen: h} }
		}},
		components.MenuItem{Label: "Sign out", Action: s.signOut},
	)

	s.menu = components.NewMenu(items)
	if !hadItems {
		s.menu.Selected = s.firstOpenStage()
	} else if prev < len(items) && !items[prev].Disabled {
		s.menu.Selected = prev
	}
}

// firstOpenStage points the cursor at the first unlocked stage not yet
// passed, so a returning test-taker lands on what they need next.
func (s *StagesScreen) firstOpenStage() int {
	for i, slot := range s.record.Slots {
		if slot.Unlocked && !slot.Passed() {
			return i
		}
	}
	return 0
}

func (s *StagesScreen) start(n int) tea.Cmd {
	if s.starting {
		return nil
	}
	s.starting = true
	ctx := s.env.Context()
	e := s.env
	identity := s.profile.Identity()
	return func() tea.Msg {
		if err := e.Progress.CanStart(ctx, identity, n); err != nil {
			return startedMsg{Err: err}
		}
		sess, err := e.Engine.Start(ctx, n)
		if err != nil {
			return startedMsg{Err: fmt.Errorf("start stage %d: %w", n, err)}
		}
		return startedMsg{Session: sess}
	}
}

func (s *StagesScreen) signOut() tea.Cmd {
	s.env.Log.Info().Str("identity", s.profile.Identity()).Msg("signed out")
	var next screen.Screen
	if s.env.SignIn != nil {
		next = s.env.SignIn()
	}
	return tea.Batch(
		func() tea.Msg { return screen.SignedInMsg{} },
		func() tea.Msg {
			if next == nil {
				return tea.QuitMsg{}
			}
			return router.ResetMsg{Screen: next}
		},
	)
}

func statusDetail(slot progress.Slot) string {
	switch slot.Status() {
	case progress.StatusPassed:
		return "✓ " + slot.Result.ScoreLabel()
	case progress.StatusFailed:
		return "✗ " + slot.Result.ScoreLabel()
	case progress.StatusLocked:
		return "Locked"
	default:
		return "Not attempted"
	}
}
