package cli

import (
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// success prints a confirmation line prefixed with a checkmark.
func success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ "+format+"\n", a...)
}

func warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! "+format+"\n", a...)
}

func heading(w io.Writer, title string) {
	cyan.Fprintf(w, "%s\n", title)
	faint.Fprintf(w, "%s\n", repeatChar('-', len([]rune(title))))
}

func repeatChar(c rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = c
	}
	return string(out)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// statusText colours a status the way the kanban columns do.
func statusText(s domain.Status) string {
	switch s {
	case domain.StatusRunning:
		return yellow.Sprint(s.Label())
	case domain.StatusComplete:
		return green.Sprint(s.Label())
	case domain.StatusLearnings:
		return cyan.Sprint(s.Label())
	default:
		return s.Label()
	}
}

func resultText(r domain.Result) string {
	switch r {
	case domain.ResultWon:
		return green.Sprint("won")
	case domain.ResultLost:
		return red.Sprint("lost")
	case "":
		return faint.Sprint("-")
	default:
		return string(r)
	}
}

func optional(v *float64, def domain.MetricDefinition) string {
	if v == nil {
		return "-"
	}
	return def.Render(*v)
}

func errorLine(w io.Writer, err error) {
	red.Fprintf(w, "Error: %v\n", err)
}
