package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emiliopalmerini/growthops/internal/tui/theme"
)

// Option represents a selectable option
type Option struct {
	Label string
	Value string
}

// Picker is a single-select list. Chosen is set when enter is pressed.
type Picker struct {
	Label   string
	Options []Option
	Cursor  int
	Chosen  string
	styles  *theme.Styles
}

// NewPicker returns a picker with the cursor on current, if present.
func NewPicker(label string, options []Option, current string) Picker {
	p := Picker{Label: label, Options: options, styles: theme.Default()}
	for i, o := range options {
		if o.Value == current {
			p.Cursor = i
		}
	}
	return p
}

// Update handles key events for the picker
func (p Picker) Update(msg tea.Msg) (Picker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(p.Options) == 0 {
		return p, nil
	}
	switch key.String() {
	case "k", "up":
		if p.Cursor > 0 {
			p.Cursor--
		}
	case "j", "down":
		if p.Cursor < len(p.Options)-1 {
			p.Cursor++
		}
	case "enter":
		p.Chosen = p.Options[p.Cursor].Value
	}
	return p, nil
}

// View renders the picker
func (p Picker) View() string {
	var b strings.Builder
	b.WriteString(p.styles.Subtitle.Render(p.Label))
	b.WriteString("\n\n")
	for i, opt := range p.Options {
		if i == p.Cursor {
			b.WriteString(p.styles.Cursor.Render("> " + opt.Label))
		} else {
			b.WriteString(p.styles.Muted.Render("  " + opt.Label))
		}
		b.WriteString("\n")
	}
	return b.String()
}
