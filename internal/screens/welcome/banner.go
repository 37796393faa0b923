package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/mth101/cbt/internal/ui/theme"
)

const bannerArt = `
 ███╗   ███╗████████╗██╗  ██╗ ██╗ ██████╗  ██╗
 ████╗ ████║╚══██╔══╝██║  ██║███║██╔═████╗███║
 ██╔████╔██║   ██║   ███████║╚██║██║██╔██║╚██║
 ██║╚██╔╝██║   ██║   ██╔══██║ ██║████╔╝██║ ██║
 ██║ ╚═╝ ██║   ██║   ██║  ██║ ██║╚██████╔╝ ██║
 ╚═╝     ╚═╝   ╚═╝   ╚═╝  ╚═╝ ╚═╝ ╚═════╝  ╚═╝`

const bannerCompact = "M T H 1 0 1"

// RenderBanner returns the MTH101 banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 52 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 52 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
