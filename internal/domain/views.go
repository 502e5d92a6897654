package domain

import (
	"sort"
	"strings"
)

// ResultPending filters for finished-or-not experiments with no recorded result.
const ResultPending = "pending"

// VaultFilter narrows the vault table. Empty fields match everything.
type VaultFilter struct {
	BoardID string
	Search  string
	Status  string
	Result  string
	Market  string
	Type    string
}

// Matches reports whether e passes every filter.
func (f VaultFilter) Matches(e *Experiment) bool {
	if f.BoardID != "" && e.BoardID != f.BoardID {
		return false
	}
	if f.Status != "" && string(e.Status) != f.Status {
		return false
	}
	switch f.Result {
	case "":
	case ResultPending:
		if e.Result != ResultNone {
			return false
		}
	default:
		if string(e.Result) != f.Result {
			return false
		}
	}
	if f.Market != "" && e.Market != f.Market {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	return f.matchesSearch(e)
}

func (f VaultFilter) matchesSearch(e *Experiment) bool {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Title), term) || strings.Contains(strings.ToLower(e.Description), term) {
		return true
	}
	for _, t := range e.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

// FilterVault returns the matching experiments, newest first.
func FilterVault(exps []*Experiment, f VaultFilter) []*Experiment {
	out := make([]*Experiment, 0, len(exps))
	for _, e := range exps {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Column is one kanban column.
type Column struct {
	Status      Status        `json:"status"`
	Label       string        `json:"label"`
	Experiments []*Experiment `json:"experiments"`
}

// KanbanColumns groups the board's non-archived experiments by status, each
// column ranked by composite score.
func KanbanColumns(b *Board, exps []*Experiment) []Column {
	byStatus := make(map[Status][]*Experiment, len(Statuses))
	for _, e := range exps {
		if e.Archived || b == nil || e.BoardID != b.ID {
			continue
		}
		byStatus[e.Status] = append(byStatus[e.Status], e)
	}
	cols := make([]Column, len(Statuses))
	for i, s := range Statuses {
		items := byStatus[s]
		if items == nil {
			items = []*Experiment{}
		}
		RankByScore(items, b)
		cols[i] = Column{Status: s, Label: s.Label(), Experiments: items}
	}
	return cols
}
