package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/tui/components"
	"github.com/emiliopalmerini/growthops/internal/tui/theme"
	"github.com/emiliopalmerini/growthops/internal/util"
)

// Scoring edits every scoring dimension of one experiment.
type Scoring struct {
	ctx    context.Context
	ws     Workspace
	exp    *domain.Experiment
	dims   []domain.DimensionDefinition
	scales []components.Scale
	focus  int
	styles *theme.Styles
}

// NewScoring opens the panel with the experiment's current scores.
func NewScoring(ctx context.Context, ws Workspace, e *domain.Experiment, b *domain.Board) *Scoring {
	s := &Scoring{ctx: ctx, ws: ws, exp: e, dims: b.ScoringDimensions(), styles: theme.Default()}
	for _, d := range s.dims {
		v, ok := e.DimensionValue(d.ID)
		if !ok {
			v = d.Midpoint()
		}
		s.scales = append(s.scales, components.NewScale(d.Name, d.Description, d.Min, d.Max, v))
	}
	if len(s.scales) > 0 {
		s.scales[0].Focus()
	}
	return s
}

// Values returns the chosen score per dimension id.
func (s *Scoring) Values() map[string]int {
	out := make(map[string]int, len(s.dims))
	for i, d := range s.dims {
		out[d.ID] = s.scales[i].Value
	}
	return out
}

func (s *Scoring) setFocus(i int) {
	if len(s.scales) == 0 {
		return
	}
	s.scales[s.focus].Blur()
	s.focus = (i + len(s.scales)) % len(s.scales)
	s.scales[s.focus].Focus()
}

// Update implements tea.Model for the scoring panel.
func (s *Scoring) Update(msg tea.Msg) (*Scoring, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch key.String() {
	case "esc":
		return s, func() tea.Msg { return closeScoringMsg{} }
	case "tab", "down", "j":
		s.setFocus(s.focus + 1)
	case "shift+tab", "up", "k":
		s.setFocus(s.focus - 1)
	case "enter":
		return s, tea.Sequence(s.save(), func() tea.Msg { return closeScoringMsg{} })
	default:
		if len(s.scales) > 0 {
			s.scales[s.focus], _ = s.scales[s.focus].Update(msg)
		}
	}
	return s, nil
}

// save writes the changed dimensions one by one and stops at the first error.
func (s *Scoring) save() tea.Cmd {
	ctx, ws, id, title := s.ctx, s.ws, s.exp.ID, s.exp.Title
	changed := make(map[string]int)
	for i, d := range s.dims {
		before, _ := s.exp.DimensionValue(d.ID)
		if v := s.scales[i].Value; v != before {
			changed[d.ID] = v
		}
	}
	order := make([]string, 0, len(changed))
	for _, d := range s.dims {
		if _, ok := changed[d.ID]; ok {
			order = append(order, d.ID)
		}
	}
	return func() tea.Msg {
		exp := s.exp
		for _, dim := range order {
			var err error
			exp, err = ws.SetDimensionScore(ctx, id, dim, changed[dim])
			if err != nil {
				return mutatedMsg{err: err}
			}
		}
		return mutatedMsg{exp: exp, note: fmt.Sprintf("Scored %q: %s", title, util.FormatScore(ws.Score(exp)))}
	}
}

// View implements tea.Model for the scoring panel.
func (s *Scoring) View() string {
	var b strings.Builder
	b.WriteString(s.styles.Subtitle.Render("Score: " + s.exp.Title))
	b.WriteString("\n\n")
	for _, sc := range s.scales {
		b.WriteString(sc.View())
		b.WriteString("\n")
	}
	return b.String()
}
