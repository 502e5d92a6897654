// Package templates holds the templ views. The *_templ.go files are generated from the .templ sources.
package templates

//go:generate templ generate

import "github.com/emiliopalmerini/growthops/internal/domain"

// Page is the data every full page shares.
type Page struct {
	Title  string
	Owner  string
	Active string // nav item to highlight
}

type navItem struct {
	ID, Label, Href string
}

var navItems = []navItem{
	{"boards", "Boards", "/boards"},
	{"vault", "Vault", "/vault"},
}

// BoardSummary is one row of the board list.
type BoardSummary struct {
	Board       *domain.Board
	Experiments int
	Running     int
}

// KanbanData is the board view.
type KanbanData struct {
	Board   *domain.Board
	Columns []domain.Column
}

// AnalyticsData is the board dashboard.
type AnalyticsData struct {
	Board *domain.Board
	Stats domain.BoardAnalytics
}

// VaultRow is one experiment in the vault table.
type VaultRow struct {
	Experiment *domain.Experiment
	BoardName  string
	Score      float64
}

// VaultData is the searchable experiment archive.
type VaultData struct {
	Filter domain.VaultFilter
	Boards []*domain.Board
	Rows   []VaultRow
}

type metricRow struct {
	Label string
	Value string
}
