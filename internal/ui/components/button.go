package components

import (
	"github.com/mth101/cbt/internal/ui/theme"
)

// Button is a styled button label. Screens own the key handling; a button
// only shows whether it is the one Enter would press.
type Button struct {
	Label  string
	Active bool
}

// NewButton creates a new button.
func NewButton(label string, active bool) Button {
	return Button{Label: label, Active: active}
}

// View renders the button.
func (b Button) View() string {
	if b.Active {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
