package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name  string
		lo    int
		hi    int
		start int
		keys  []string
		want  int
	}{
		{"clamped on create", 1, 5, 9, nil, 5},
		{"right", 1, 10, 5, []string{"right", "l"}, 7},
		{"left stops at min", 1, 5, 2, []string{"left", "h", "h"}, 1},
		{"right stops at max", 1, 5, 4, []string{"right", "right"}, 5},
		{"home and end", 1, 10, 5, []string{"end"}, 10},
		{"home", 1, 10, 5, []string{"home"}, 1},
		{"digit jump", 1, 5, 1, []string{"4"}, 4},
		{"digit clamped", 1, 5, 1, []string{"8"}, 5},
		{"no digit jump on wide scale", 1, 10, 3, []string{"7"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScale("Impact", "", tt.lo, tt.hi, tt.start)
			s.Focus()
			for _, k := range tt.keys {
				s, _ = s.Update(key(k))
			}
			if s.Value != tt.want {
				t.Errorf("Value = %d, want %d", s.Value, tt.want)
			}
		})
	}
}

func TestScaleIgnoresKeysWhenBlurred(t *testing.T) {
	s := NewScale("Impact", "How big", 1, 10, 5)
	s, _ = s.Update(key("right"))
	if s.Value != 5 {
		t.Errorf("blurred scale moved to %d", s.Value)
	}
	view := s.View()
	if !strings.Contains(view, "[5]") || !strings.Contains(view, "How big") {
		t.Errorf("unexpected view %q", view)
	}
}

func TestPicker(t *testing.T) {
	opts := []Option{
		{Label: "Growth Team", Value: "growth"},
		{Label: "Product Bets", Value: "product"},
		{Label: "Retention", Value: "retention"},
	}

	p := NewPicker("Switch board", opts, "product")
	if p.Cursor != 1 {
		t.Fatalf("cursor should start on the current option, got %d", p.Cursor)
	}

	p, _ = p.Update(key("down"))
	p, _ = p.Update(key("j"))
	if p.Cursor != 2 {
		t.Errorf("cursor should stop at the last option, got %d", p.Cursor)
	}
	if p.Chosen != "" {
		t.Errorf("nothing chosen yet, got %q", p.Chosen)
	}

	p, _ = p.Update(key("k"))
	p, _ = p.Update(key("enter"))
	if p.Chosen != "product" {
		t.Errorf("Chosen = %q, want product", p.Chosen)
	}

	if view := p.View(); !strings.Contains(view, "> Product Bets") {
		t.Errorf("view should mark the cursor, got %q", view)
	}
}

func TestHelpBar(t *testing.T) {
	view := NewHelpBar(KeyBinding{Key: "q", Desc: "quit"}, KeyBinding{Key: "r", Desc: "refresh"}).View()
	for _, want := range []string{"q", "quit", "refresh", "•"} {
		if !strings.Contains(view, want) {
			t.Errorf("help bar missing %q in %q", want, view)
		}
	}
}
