// Package theme holds the dashboard palette and shared lipgloss styles.
package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

var (
	Green      = lipgloss.Color("#10B981")
	LightGreen = lipgloss.Color("#34D399")
	DarkGreen  = lipgloss.Color("#047857")

	White     = lipgloss.Color("#F9FAFB")
	LightGray = lipgloss.Color("#9CA3AF")
	DimGray   = lipgloss.Color("#6B7280")
	DarkGray  = lipgloss.Color("#374151")

	Amber = lipgloss.Color("#F59E0B")
	Red   = lipgloss.Color("#EF4444")
	Blue  = lipgloss.Color("#3B82F6")
	Cyan  = lipgloss.Color("#06B6D4")
)

// Styles contains all shared TUI styles.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Active   lipgloss.Style
	Inactive lipgloss.Style

	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Column       lipgloss.Style
	ColumnFocus  lipgloss.Style
	ColumnHeader lipgloss.Style
	Card         lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

var (
	defaultStyles *Styles
	once          sync.Once
)

// Default returns the shared Styles instance.
func Default() *Styles {
	once.Do(func() {
		defaultStyles = newStyles()
	})
	return defaultStyles
}

func newStyles() *Styles {
	column := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DarkGray).
		Padding(0, 1)

	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(White),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(Green),
		Body:     lipgloss.NewStyle().Foreground(LightGray),
		Muted:    lipgloss.NewStyle().Foreground(DimGray),
		Bold:     lipgloss.NewStyle().Bold(true).Foreground(White),

		Cursor:   lipgloss.NewStyle().Bold(true).Foreground(LightGreen),
		Selected: lipgloss.NewStyle().Foreground(Green),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(LightGreen),
		Inactive: lipgloss.NewStyle().Foreground(DimGray),

		HelpKey:  lipgloss.NewStyle().Bold(true).Foreground(LightGray),
		HelpDesc: lipgloss.NewStyle().Foreground(DimGray),

		Column:       column,
		ColumnFocus:  column.BorderForeground(Green),
		ColumnHeader: lipgloss.NewStyle().Bold(true).Foreground(White).MarginBottom(1),
		Card:         lipgloss.NewStyle().Foreground(LightGray),

		Success: lipgloss.NewStyle().Foreground(Green),
		Warning: lipgloss.NewStyle().Foreground(Amber),
		Error:   lipgloss.NewStyle().Foreground(Red),
		Info:    lipgloss.NewStyle().Foreground(Blue),
	}
}

// Status returns the accent style of a kanban column.
func (s *Styles) Status(st domain.Status) lipgloss.Style {
	switch st {
	case domain.StatusHypothesis:
		return s.Info
	case domain.StatusRunning:
		return s.Warning
	case domain.StatusComplete:
		return s.Success
	case domain.StatusLearnings:
		return lipgloss.NewStyle().Foreground(Cyan)
	default:
		return s.Body
	}
}

// Result returns the style of an experiment outcome.
func (s *Styles) Result(r domain.Result) lipgloss.Style {
	switch r {
	case domain.ResultWon:
		return s.Success
	case domain.ResultLost:
		return s.Error
	default:
		return s.Muted
	}
}
