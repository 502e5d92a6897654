package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/tui/theme"
	"github.com/emiliopalmerini/growthops/internal/util"
)

const (
	minColumnWidth = 18
	maxCardsShown  = 12
)

// Kanban shows one column per status with a card cursor.
type Kanban struct {
	ctx     context.Context
	ws      Workspace
	board   *domain.Board
	columns []domain.Column
	col     int
	row     int
	width   int
	styles  *theme.Styles
}

func NewKanban(ctx context.Context, ws Workspace) *Kanban {
	return &Kanban{ctx: ctx, ws: ws, width: 120, styles: theme.Default()}
}

// SetColumns replaces the board content and keeps the cursor in range.
func (k *Kanban) SetColumns(board *domain.Board, cols []domain.Column) {
	k.board = board
	k.columns = cols
	k.clamp()
}

func (k *Kanban) SetWidth(w int) { k.width = w }

// Reset moves the cursor to the first card.
func (k *Kanban) Reset() {
	k.col, k.row = 0, 0
	k.clamp()
}

// Focus moves the cursor onto the experiment with id, if it is on the board.
func (k *Kanban) Focus(id string) {
	for c, col := range k.columns {
		for r, e := range col.Experiments {
			if e.ID == id {
				k.col, k.row = c, r
				return
			}
		}
	}
}

// Selected returns the experiment under the cursor, or nil for an empty column.
func (k *Kanban) Selected() *domain.Experiment {
	if k.col >= len(k.columns) {
		return nil
	}
	exps := k.columns[k.col].Experiments
	if k.row >= len(exps) {
		return nil
	}
	return exps[k.row]
}

func (k *Kanban) clamp() {
	if len(k.columns) == 0 {
		k.col, k.row = 0, 0
		return
	}
	k.col = max(0, min(k.col, len(k.columns)-1))
	k.row = max(0, min(k.row, len(k.columns[k.col].Experiments)-1))
}

// Update implements tea.Model for the kanban screen.
func (k *Kanban) Update(msg tea.Msg) (*Kanban, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return k, nil
	}
	switch key.String() {
	case "h", "left":
		k.col--
		k.clamp()
	case "l", "right":
		k.col++
		k.clamp()
	case "k", "up":
		k.row--
		k.clamp()
	case "j", "down":
		k.row++
		k.clamp()
	case "[":
		return k, k.move(-1)
	case "]":
		return k, k.move(1)
	case "s":
		if e := k.Selected(); e != nil {
			return k, func() tea.Msg { return openScoringMsg{exp: e} }
		}
	}
	return k, nil
}

// move shifts the selected experiment by delta columns.
func (k *Kanban) move(delta int) tea.Cmd {
	e := k.Selected()
	if e == nil {
		return nil
	}
	target := k.col + delta
	if target < 0 || target >= len(domain.Statuses) {
		return nil
	}
	status := domain.Statuses[target]
	ctx, ws, id := k.ctx, k.ws, e.ID
	return func() tea.Msg {
		exp, err := ws.SetStatus(ctx, id, status)
		return mutatedMsg{exp: exp, note: fmt.Sprintf("Moved %q to %s", e.Title, status.Label()), err: err}
	}
}

// View implements tea.Model for the kanban screen.
func (k *Kanban) View() string {
	if len(k.columns) == 0 {
		return k.styles.Muted.Render("No columns")
	}
	// Two border cells and two padding cells per column.
	width := max(minColumnWidth, k.width/len(k.columns)-4)

	rendered := make([]string, len(k.columns))
	for c, col := range k.columns {
		var b strings.Builder
		header := k.styles.Status(col.Status).Bold(true).Render(col.Label)
		b.WriteString(header + k.styles.Muted.Render(fmt.Sprintf(" %d", len(col.Experiments))))
		b.WriteString("\n\n")
		if len(col.Experiments) == 0 {
			b.WriteString(k.styles.Muted.Render("empty"))
		}
		for r, e := range col.Experiments {
			if r == maxCardsShown {
				b.WriteString(k.styles.Muted.Render(fmt.Sprintf("+%d more", len(col.Experiments)-r)))
				break
			}
			b.WriteString(k.card(e, c == k.col && r == k.row, width))
			b.WriteString("\n")
		}

		style := k.styles.Column
		if c == k.col {
			style = k.styles.ColumnFocus
		}
		rendered[c] = style.Width(width).Render(b.String())
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	if e := k.Selected(); e != nil {
		out = lipgloss.JoinVertical(lipgloss.Left, out, k.detail(e))
	}
	return out
}

func (k *Kanban) card(e *domain.Experiment, selected bool, width int) string {
	title := util.Truncate(e.Title, width-2)
	meta := fmt.Sprintf("%s · %s", util.FormatScore(k.ws.Score(e)), e.Market)
	if e.Locked {
		meta += " · locked"
	}
	if selected {
		return k.styles.Cursor.Render("▌"+title) + "\n" + k.styles.Body.Render(" "+meta)
	}
	return k.styles.Card.Render(" "+title) + "\n" + k.styles.Muted.Render(" "+meta)
}

func (k *Kanban) detail(e *domain.Experiment) string {
	parts := []string{
		k.styles.Bold.Render(e.Title),
		k.styles.Muted.Render(e.Type + " · " + e.Owner),
	}
	if len(e.Tags) > 0 {
		parts = append(parts, k.styles.Info.Render("#"+strings.Join(e.Tags, " #")))
	}
	if e.Result != domain.ResultNone {
		parts = append(parts, k.styles.Result(e.Result).Render(string(e.Result)))
	}
	return "\n" + strings.Join(parts, "  ")
}
