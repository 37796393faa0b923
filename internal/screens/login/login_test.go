package login

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screens/env"
	"github.com/mth101/cbt/internal/screens/stages"
	"github.com/mth101/cbt/internal/store"
)

type failingProfiles struct {
	*store.Memory
}

func (failingProfiles) SaveProfile(context.Context, store.Profile) error {
	return errors.New("read-only database")
}

func newTestLogin(profiles store.ProfileStore) *LoginScreen {
	return New(&env.Env{
		Ctx:      context.Background(),
		Profiles: profiles,
		Log:      zerolog.Nop(),
	})
}

func typeText(l *LoginScreen, s string) {
	for _, r := range s {
		l.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func enter(l *LoginScreen) tea.Cmd {
	_, cmd := l.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd
}

func TestLogin_SignIn(t *testing.T) {
	mem := store.NewMemory()
	l := newTestLogin(mem)
	l.setFocus(0)

	typeText(l, "  Ada Lovelace ")
	enter(l)
	if l.focus != 1 {
		t.Fatalf("Enter on an empty department should move focus, focus = %d", l.focus)
	}
	typeText(l, "Mathematics")

	cmd := enter(l)
	if cmd == nil {
		t.Fatalf("expected save command, error %q", l.errMsg)
	}
	_, cmd = l.Update(cmd())
	reset, ok := cmd().(router.ResetMsg)
	if !ok {
		t.Fatalf("expected ResetMsg, got %T", cmd())
	}
	if _, ok := reset.Screen.(*stages.StagesScreen); !ok {
		t.Errorf("expected stages screen, got %T", reset.Screen)
	}

	last, err := mem.LastProfile(context.Background())
	if err != nil || last == nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if last.Name != "Ada Lovelace" || last.Department != "Mathematics" {
		t.Errorf("saved profile = %+v", last)
	}
}

func TestLogin_RequiresDepartment(t *testing.T) {
	l := newTestLogin(store.NewMemory())
	l.setFocus(1)
	typeText(l, "   ")
	l.setFocus(0)
	typeText(l, "Ada")
	l.setFocus(1)

	if cmd := enter(l); cmd != nil {
		t.Fatal("submit should be rejected")
	}
	if !strings.Contains(l.errMsg, "department is required") {
		t.Errorf("errMsg = %q", l.errMsg)
	}
	if view := l.View(100, 30); !strings.Contains(view, "department is required") {
		t.Error("error should be rendered")
	}
}

func TestLogin_PrefillsRecentProfiles(t *testing.T) {
	l := newTestLogin(store.NewMemory())
	l.Update(profilesLoadedMsg{Profiles: []store.Profile{
		{Name: "Grace", Department: "Physics"},
		{Name: "Ada", Department: "Mathematics"},
	}})

	if l.fields[0].Value() != "Grace" || l.fields[1].Value() != "Physics" {
		t.Fatalf("prefill = %q/%q", l.fields[0].Value(), l.fields[1].Value())
	}

	l.Update(tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	if l.fields[0].Value() != "Ada" {
		t.Errorf("Ctrl+R should cycle to the next profile, got %q", l.fields[0].Value())
	}
}

func TestLogin_SaveFailure(t *testing.T) {
	l := newTestLogin(failingProfiles{store.NewMemory()})
	l.fill(store.Profile{Name: "Ada", Department: "Mathematics"})
	l.setFocus(1)

	cmd := enter(l)
	_, next := l.Update(cmd())
	if next != nil {
		t.Error("a failed save must not navigate")
	}
	if !strings.Contains(l.errMsg, "read-only") {
		t.Errorf("errMsg = %q", l.errMsg)
	}
}
