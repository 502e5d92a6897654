package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func vaultFixture() []*Experiment {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return []*Experiment{
		{ID: "a", BoardID: "b1", Title: "Exit intent popup", Status: StatusLearnings, Result: ResultWon, Market: "US", Type: "Acquisition", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", BoardID: "b1", Title: "Annual plan discount", Description: "Push annual billing", Status: StatusComplete, Market: "UK", Type: "Monetization", Tags: []string{"pricing"}, CreatedAt: now},
		{ID: "c", BoardID: "b1", Title: "Win-back email", Status: StatusRunning, Market: "US", Type: "Retention", Tags: []string{"Email"}, CreatedAt: now.Add(-time.Hour)},
		{ID: "d", BoardID: "b2", Title: "Other board", Status: StatusIdea, Market: "US", Type: "Acquisition", CreatedAt: now},
	}
}

func TestFilterVault(t *testing.T) {
	tests := []struct {
		name   string
		filter VaultFilter
		want   []string
	}{
		{"board only, newest first", VaultFilter{BoardID: "b1"}, []string{"b", "c", "a"}},
		{"search title", VaultFilter{BoardID: "b1", Search: "POPUP"}, []string{"a"}},
		{"search description", VaultFilter{Search: "annual billing"}, []string{"b"}},
		{"search tag", VaultFilter{Search: "email"}, []string{"c"}},
		{"status", VaultFilter{Status: "running"}, []string{"c"}},
		{"result", VaultFilter{Result: "won"}, []string{"a"}},
		{"pending result", VaultFilter{BoardID: "b1", Result: ResultPending}, []string{"b", "c"}},
		{"market and type", VaultFilter{Market: "US", Type: "Acquisition"}, []string{"d", "a"}},
		{"no match", VaultFilter{Search: "nothing here"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterVault(vaultFixture(), tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterVault (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKanbanColumns(t *testing.T) {
	now := time.Now()
	board := &Board{ID: "b1", Name: "Growth"}
	exps := []*Experiment{
		{ID: "low", BoardID: "b1", Status: StatusIdea, Impact: 2, Confidence: 2, Ease: 2, CreatedAt: now},
		{ID: "high", BoardID: "b1", Status: StatusIdea, Impact: 9, Confidence: 8, Ease: 7, CreatedAt: now},
		{ID: "run", BoardID: "b1", Status: StatusRunning, Impact: 5, Confidence: 5, Ease: 5, CreatedAt: now},
		{ID: "archived", BoardID: "b1", Status: StatusLearnings, Archived: true, CreatedAt: now},
		{ID: "foreign", BoardID: "b2", Status: StatusIdea, CreatedAt: now},
	}

	cols := KanbanColumns(board, exps)
	if len(cols) != len(Statuses) {
		t.Fatalf("expected %d columns, got %d", len(Statuses), len(cols))
	}

	if diff := cmp.Diff([]string{"high", "low"}, ids(cols[0].Experiments)); diff != "" {
		t.Errorf("idea column (-want +got):\n%s", diff)
	}
	if cols[0].Label != "Idea/Backlog" {
		t.Errorf("unexpected label %q", cols[0].Label)
	}
	if diff := cmp.Diff([]string{"run"}, ids(cols[2].Experiments)); diff != "" {
		t.Errorf("running column (-want +got):\n%s", diff)
	}
	if len(cols[4].Experiments) != 0 {
		t.Errorf("archived experiments should leave the board, got %v", ids(cols[4].Experiments))
	}
}
