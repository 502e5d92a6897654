package components

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emiliopalmerini/growthops/internal/tui/theme"
)

// Scale picks an integer within [Min, Max] for one scoring dimension.
type Scale struct {
	Label   string
	Hint    string
	Min     int
	Max     int
	Value   int
	Focused bool
	styles  *theme.Styles
}

// NewScale returns a scale positioned at value, clamped to the bounds.
func NewScale(label, hint string, lo, hi, value int) Scale {
	s := Scale{Label: label, Hint: hint, Min: lo, Max: hi, styles: theme.Default()}
	s.SetValue(value)
	return s
}

func (s *Scale) Focus() { s.Focused = true }

func (s *Scale) Blur() { s.Focused = false }

// SetValue moves the scale to v, clamped to [Min, Max].
func (s *Scale) SetValue(v int) {
	s.Value = max(s.Min, min(s.Max, v))
}

// Update handles key events for the scale
func (s Scale) Update(msg tea.Msg) (Scale, tea.Cmd) {
	if !s.Focused {
		return s, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch k := key.String(); k {
	case "h", "left":
		s.SetValue(s.Value - 1)
	case "l", "right":
		s.SetValue(s.Value + 1)
	case "home":
		s.SetValue(s.Min)
	case "end":
		s.SetValue(s.Max)
	default:
		// Digits jump straight to a value on scales that fit in one digit.
		if n, err := strconv.Atoi(k); err == nil && s.Min >= 0 && s.Max < 10 {
			s.SetValue(n)
		}
	}
	return s, nil
}

// View renders the scale
func (s Scale) View() string {
	var b strings.Builder

	label := s.styles.Body.Render(s.Label)
	if s.Focused {
		label = s.styles.Cursor.Render("> " + s.Label)
	} else {
		label = "  " + label
	}
	b.WriteString(label)
	if s.Hint != "" {
		b.WriteString("  ")
		b.WriteString(s.styles.Muted.Render(s.Hint))
	}
	b.WriteString("\n    ")

	for i := s.Min; i <= s.Max; i++ {
		n := strconv.Itoa(i)
		switch {
		case i == s.Value && s.Focused:
			b.WriteString(s.styles.Active.Render("[" + n + "]"))
		case i == s.Value:
			b.WriteString(s.styles.Selected.Render("[" + n + "]"))
		default:
			b.WriteString(s.styles.Muted.Render(" " + n + " "))
		}
	}
	b.WriteString("\n")
	return b.String()
}
