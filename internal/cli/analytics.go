package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics <board>",
	Short: "Show the analytics dashboard of a board",
	Long: `Show the analytics dashboard of a board: active and completed counts, win
rate, 30-day velocity, average score, per-metric averages and breakdowns by
type, market and status.

Examples:
  growthops analytics growth
  growthops analytics growth --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalytics,
}

var analyticsJSON bool

func init() {
	analyticsCmd.Flags().BoolVar(&analyticsJSON, "json", false, "Print the summary as JSON")
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := findBoard(app.Service, args[0])
		if err != nil {
			return err
		}
		summary, err := app.Service.Analytics(b.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyticsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}
		printAnalytics(out, b, summary)
		return nil
	})
}

func printAnalytics(out io.Writer, b *domain.Board, a domain.BoardAnalytics) {
	fmt.Fprintln(out)
	heading(out, b.Name+" analytics")
	fmt.Fprintf(out, "Active:      %d\n", a.Active)
	fmt.Fprintf(out, "Completed:   %d\n", a.Completed)
	fmt.Fprintf(out, "Win rate:    %s\n", util.FormatPercent(a.WinRate))
	fmt.Fprintf(out, "Velocity:    %d (30 days)\n", a.Velocity)
	fmt.Fprintf(out, "Avg score:   %s\n", util.FormatScore(a.AvgScore))

	if len(a.Metrics) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Metrics")
		w := newTable(out)
		fmt.Fprintln(w, "  METRIC\tCOUNT\tBASELINE\tTARGET\tACTUAL\tPROGRESS")
		for _, m := range a.Metrics {
			def, _ := b.Metric(m.MetricID)
			progress := "-"
			if m.AvgActual != nil {
				progress = fmt.Sprintf("%.0f%%", m.Progress())
			}
			fmt.Fprintf(w, "  %s\t%d\t%s\t%s\t%s\t%s\n",
				m.Name, m.Count, optional(m.AvgBaseline, def), optional(m.AvgTarget, def), optional(m.AvgActual, def), progress)
		}
		_ = w.Flush()
	}

	printBreakdown(out, "By type", a.ByType)
	printBreakdown(out, "By market", a.ByMarket)
	printBreakdown(out, "By status", a.ByStatus)
	fmt.Fprintln(out)
}

// printBreakdown draws one bar per non-zero count.
func printBreakdown(out io.Writer, title string, counts []domain.Count) {
	max := 0
	for _, c := range counts {
		if c.Value > max {
			max = c.Value
		}
	}
	if max == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	w := newTable(out)
	for _, c := range counts {
		if c.Value == 0 {
			continue
		}
		bar := strings.Repeat("█", c.Value*20/max)
		fmt.Fprintf(w, "  %s\t%d\t%s\n", c.Label, c.Value, cyan.Sprint(bar))
	}
	_ = w.Flush()
}
