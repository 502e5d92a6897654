package components

import (
	"strings"

	"github.com/emiliopalmerini/growthops/internal/tui/theme"
)

// KeyBinding is one entry of the help bar.
type KeyBinding struct {
	Key  string
	Desc string
}

// HelpBar renders key bindings on a single line.
type HelpBar struct {
	Bindings []KeyBinding
	styles   *theme.Styles
}

func NewHelpBar(bindings ...KeyBinding) HelpBar {
	return HelpBar{Bindings: bindings, styles: theme.Default()}
}

// View renders the help bar
func (h HelpBar) View() string {
	parts := make([]string, 0, len(h.Bindings))
	for _, kb := range h.Bindings {
		parts = append(parts, h.styles.HelpKey.Render(kb.Key)+" "+h.styles.HelpDesc.Render(kb.Desc))
	}
	return strings.Join(parts, h.styles.HelpDesc.Render("  •  "))
}
