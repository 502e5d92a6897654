package templates

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
)

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func navClass(id, active string) string {
	if id == active {
		return "active"
	}
	return ""
}

func boardURL(id string) templ.SafeURL {
	return templ.URL("/boards/" + url.PathEscape(id))
}

func analyticsURL(id string) templ.SafeURL {
	return templ.URL("/boards/" + url.PathEscape(id) + "/analytics")
}

func boardVaultURL(id string) templ.SafeURL {
	return templ.URL("/vault?board=" + url.QueryEscape(id))
}

func boardMeta(s BoardSummary) string {
	return fmt.Sprintf("%d experiments · %d running · created %s",
		s.Experiments, s.Running, util.FormatDateHuman(s.Board.CreatedAt))
}

func cardMeta(e *domain.Experiment) string {
	return e.Market + " · " + e.Type
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func cardScore(b *domain.Board, e *domain.Experiment) string {
	return util.FormatScore(domain.CompositeScore(e, b))
}

// metricOutcome reports whether the average actual reached the target, and
// whether there was enough data to tell.
func metricOutcome(m domain.MetricSummary) (hit, miss bool) {
	ok, known := m.Hit()
	return known && ok, known && !ok
}

func metricDefinition(b *domain.Board, id string) domain.MetricDefinition {
	def, _ := b.Metric(id)
	return def
}

func metricRows(def domain.MetricDefinition, m domain.MetricSummary) []metricRow {
	rows := []metricRow{
		{Label: "Baseline"},
		{Label: "Target"},
		{Label: "Actual"},
	}
	for i, v := range []*float64{m.AvgBaseline, m.AvgTarget, m.AvgActual} {
		if v != nil {
			rows[i].Value = def.Render(*v)
		}
	}
	return rows
}

func progressValue(m domain.MetricSummary) string {
	return fmt.Sprintf("%.0f", m.Progress())
}

func statusValues() []string {
	out := make([]string, len(domain.Statuses))
	for i, s := range domain.Statuses {
		out[i] = string(s)
	}
	return out
}

func resultValues() []string {
	return []string{
		string(domain.ResultWon), string(domain.ResultLost), string(domain.ResultInconclusive), domain.ResultPending,
	}
}

var vaultHeadings = []string{"Title", "Board", "Status", "Result", "Market", "Type", "Score", "Tags", "Created"}

func vaultCells(r VaultRow) []string {
	e := r.Experiment
	result := string(e.Result)
	if result == "" {
		result = domain.ResultPending
	}
	return []string{
		util.Truncate(e.Title, 60),
		r.BoardName,
		e.Status.Label(),
		result,
		e.Market,
		e.Type,
		util.FormatScore(r.Score),
		joinTags(e.Tags),
		util.FormatDateISO(e.CreatedAt),
	}
}
