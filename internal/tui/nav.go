package tui

import (
	"strings"

	"github.com/emiliopalmerini/growthops/internal/tui/theme"
)

// NavItem represents a navigation item
type NavItem struct {
	Key    string
	Label  string
	Active bool
}

// NavBar renders the screen tabs.
type NavBar struct {
	Items  []NavItem
	styles *theme.Styles
}

func NewNavBar(items []NavItem) *NavBar {
	return &NavBar{Items: items, styles: theme.Default()}
}

// View renders the navigation bar as toggle-style tabs
func (n NavBar) View() string {
	items := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		if item.Active {
			items = append(items, n.styles.Active.Render(item.Label))
			continue
		}
		items = append(items, n.styles.Muted.Render("["+item.Key+"]")+" "+n.styles.Inactive.Render(item.Label))
	}
	return strings.Join(items, n.styles.Muted.Render("  /  "))
}
