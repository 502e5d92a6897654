package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/tui/theme"
	"github.com/emiliopalmerini/growthops/internal/util"
)

const (
	barWidth        = 30
	sparklineHeight = 3
)

// Analytics renders the board dashboard.
type Analytics struct {
	board   *domain.Board
	summary domain.BoardAnalytics
	intake  []int

	winRate  progress.Model
	progress progress.Model
	width    int
	styles   *theme.Styles
}

func NewAnalytics() *Analytics {
	return &Analytics{
		winRate: progress.New(
			progress.WithGradient(string(theme.DarkGreen), string(theme.LightGreen)),
			progress.WithWidth(barWidth),
		),
		progress: progress.New(
			progress.WithGradient(string(theme.Blue), string(theme.Cyan)),
			progress.WithWidth(barWidth),
		),
		width:  120,
		styles: theme.Default(),
	}
}

// SetData replaces the figures on screen.
func (a *Analytics) SetData(board *domain.Board, summary domain.BoardAnalytics, intake []int) {
	a.board = board
	a.summary = summary
	a.intake = intake
}

func (a *Analytics) SetWidth(w int) { a.width = w }

// View implements tea.Model for the analytics screen.
func (a *Analytics) View() string {
	s := a.summary
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		a.stat("Active", fmt.Sprint(s.Active)),
		a.stat("Completed", fmt.Sprint(s.Completed)),
		a.stat("Win rate", util.FormatPercent(s.WinRate)),
		a.stat("Velocity (30d)", fmt.Sprint(s.Velocity)),
		a.stat("Avg score", util.FormatScore(s.AvgScore)),
	)

	sections := []string{
		stats,
		"",
		a.styles.Subtitle.Render("Win rate"),
		a.winRate.ViewAs(float64(s.WinRate) / 100),
		"",
		a.styles.Subtitle.Render("Metrics"),
		a.metrics(),
		"",
		a.styles.Subtitle.Render(fmt.Sprintf("Weekly intake (%d weeks)", len(a.intake))),
		a.sparkline(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			a.breakdown("By type", s.ByType),
			a.breakdown("By market", s.ByMarket),
			a.breakdown("By status", s.ByStatus),
		),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *Analytics) stat(label, value string) string {
	body := a.styles.Bold.Render(value) + "\n" + a.styles.Muted.Render(label)
	return a.styles.Column.Width(16).MarginRight(1).Render(body)
}

func (a *Analytics) metrics() string {
	if len(a.summary.Metrics) == 0 {
		return a.styles.Muted.Render("No metrics tracked on this board")
	}
	var b strings.Builder
	for _, m := range a.summary.Metrics {
		def, _ := a.board.Metric(m.MetricID)
		values := fmt.Sprintf("%s → %s, actual %s",
			render(def, m.AvgBaseline), render(def, m.AvgTarget), render(def, m.AvgActual))
		marker := a.styles.Muted.Render("·")
		if hit, ok := m.Hit(); ok {
			marker = a.styles.Error.Render("✗")
			if hit {
				marker = a.styles.Success.Render("✓")
			}
		}
		fmt.Fprintf(&b, "%s %-20s %s  %s %s\n",
			marker,
			util.Truncate(m.Name, 20),
			a.progress.ViewAs(m.Progress()/100),
			a.styles.Body.Render(values),
			a.styles.Muted.Render(fmt.Sprintf("(%d)", m.Count)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func render(def domain.MetricDefinition, v *float64) string {
	if v == nil {
		return "-"
	}
	return def.Render(*v)
}

func (a *Analytics) sparkline() string {
	total := 0
	for _, n := range a.intake {
		total += n
	}
	if total == 0 {
		return a.styles.Muted.Render("No experiments created recently")
	}
	spark := sparkline.New(len(a.intake)*3, sparklineHeight)
	for _, n := range a.intake {
		// Each week is three cells wide.
		for range 3 {
			spark.Push(float64(n))
		}
	}
	spark.Draw()
	return lipgloss.NewStyle().Foreground(theme.Green).Render(spark.View()) +
		"  " + a.styles.Muted.Render(fmt.Sprintf("%d total", total))
}

func (a *Analytics) breakdown(title string, counts []domain.Count) string {
	var b strings.Builder
	b.WriteString(a.styles.Bold.Render(title))
	b.WriteString("\n")
	peak := 0
	for _, c := range counts {
		peak = max(peak, c.Value)
	}
	for _, c := range counts {
		if c.Value == 0 {
			continue
		}
		bar := strings.Repeat("█", max(1, c.Value*10/peak))
		fmt.Fprintf(&b, "%-13s %s %d\n", util.Truncate(c.Label, 13), a.styles.Selected.Render(bar), c.Value)
	}
	if peak == 0 {
		b.WriteString(a.styles.Muted.Render("none"))
	}
	return lipgloss.NewStyle().Width(32).Render(b.String())
}
