package domain

import (
	"math"
	"time"
)

// velocityWindow is the lookback used for the completed-experiments velocity figure.
const velocityWindow = 30 * 24 * time.Hour

// MetricSummary summarizes one metric across a set of experiments.
// A nil average means no experiment recorded that value.
type MetricSummary struct {
	MetricID    string   `json:"metric_id"`
	Name        string   `json:"name"`
	Count       int      `json:"count"`
	AvgBaseline *float64 `json:"avg_baseline"`
	AvgTarget   *float64 `json:"avg_target"`
	AvgActual   *float64 `json:"avg_actual"`
}

// AggregateMetric averages baseline, target and actual over the experiments
// that recorded the metric. Nulls are skipped independently per field.
func AggregateMetric(def MetricDefinition, exps []*Experiment) MetricSummary {
	summary := MetricSummary{MetricID: def.ID, Name: def.Name}
	var baseline, target, actual mean
	for _, e := range exps {
		mv, ok := e.MetricValue(def.ID)
		if !ok {
			continue
		}
		summary.Count++
		baseline.add(mv.Baseline)
		target.add(mv.Target)
		actual.add(mv.Actual)
	}
	summary.AvgBaseline = baseline.value()
	summary.AvgTarget = target.value()
	summary.AvgActual = actual.value()
	return summary
}

// MetricHit reports whether the actual value met the target. ok is false when
// either value is missing. Ties count as a hit.
func MetricHit(mv MetricValue) (hit, ok bool) {
	if mv.Actual == nil || mv.Target == nil {
		return false, false
	}
	return *mv.Actual >= *mv.Target, true
}

// Hit applies MetricHit to the averaged values.
func (s MetricSummary) Hit() (hit, ok bool) {
	return MetricHit(MetricValue{Target: s.AvgTarget, Actual: s.AvgActual})
}

// Progress returns how far the average actual has moved from baseline toward
// target, as a percentage clamped to [0, 100].
func (s MetricSummary) Progress() float64 {
	if s.AvgActual == nil {
		return 0
	}
	var baseline, target float64
	if s.AvgBaseline != nil {
		baseline = *s.AvgBaseline
	}
	if s.AvgTarget != nil {
		target = *s.AvgTarget
	}
	if target == baseline {
		return 0
	}
	p := (*s.AvgActual - baseline) / (target - baseline) * 100
	return math.Min(math.Max(p, 0), 100)
}

// Count is a labelled tally used by the dashboard breakdowns.
type Count struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// BoardAnalytics is the dashboard summary of one board.
type BoardAnalytics struct {
	BoardID   string          `json:"board_id"`
	Active    int             `json:"active"`
	Completed int             `json:"completed"`
	WinRate   int             `json:"win_rate"`
	Velocity  int             `json:"velocity"`
	AvgScore  float64         `json:"avg_score"`
	Metrics   []MetricSummary `json:"metrics"`
	ByType    []Count         `json:"by_type"`
	ByMarket  []Count         `json:"by_market"`
	ByStatus  []Count         `json:"by_status"`
}

// SummarizeBoard computes the dashboard figures for board b. Experiments on
// other boards are ignored.
func SummarizeBoard(b *Board, exps []*Experiment, now time.Time) BoardAnalytics {
	var scoped []*Experiment
	for _, e := range exps {
		if b != nil && e.BoardID == b.ID {
			scoped = append(scoped, e)
		}
	}

	out := BoardAnalytics{Metrics: []MetricSummary{}}
	if b != nil {
		out.BoardID = b.ID
	}

	var active []*Experiment
	withResult, wins := 0, 0
	scoreSum := 0.0
	for _, e := range scoped {
		if !e.Archived {
			active = append(active, e)
			scoreSum += CompositeScore(e, b)
		}
		if !e.Status.Finished() {
			continue
		}
		out.Completed++
		if e.Result != ResultNone {
			withResult++
			if e.Result == ResultWon {
				wins++
			}
		}
		if !e.CreatedAt.Before(now.Add(-velocityWindow)) {
			out.Velocity++
		}
	}

	out.Active = len(active)
	if withResult > 0 {
		out.WinRate = int(math.Round(float64(wins) / float64(withResult) * 100))
	}
	if len(active) > 0 {
		out.AvgScore = round1(scoreSum / float64(len(active)))
	}

	for _, def := range b.Metrics() {
		out.Metrics = append(out.Metrics, AggregateMetric(def, scoped))
	}

	out.ByType = tally(Types, active, func(e *Experiment) string { return e.Type })
	out.ByMarket = tally(Markets, active, func(e *Experiment) string { return e.Market })
	statusLabels := make([]string, len(Statuses))
	for i, s := range Statuses {
		statusLabels[i] = string(s)
	}
	out.ByStatus = tally(statusLabels, active, func(e *Experiment) string { return string(e.Status) })
	for i := range out.ByStatus {
		out.ByStatus[i].Label = Status(out.ByStatus[i].Label).Label()
	}
	return out
}

// WeeklyIntake counts experiments created in each of the last weeks seven-day
// windows ending at now, oldest first. Experiments created after now are ignored.
func WeeklyIntake(exps []*Experiment, now time.Time, weeks int) []int {
	if weeks <= 0 {
		return nil
	}
	out := make([]int, weeks)
	const week = 7 * 24 * time.Hour
	for _, e := range exps {
		if e.CreatedAt.After(now) {
			continue
		}
		ago := int(now.Sub(e.CreatedAt) / week)
		if ago < weeks {
			out[weeks-1-ago]++
		}
	}
	return out
}

func tally(keys []string, exps []*Experiment, key func(*Experiment) string) []Count {
	counts := make(map[string]int, len(keys))
	for _, e := range exps {
		counts[key(e)]++
	}
	out := make([]Count, len(keys))
	for i, k := range keys {
		out[i] = Count{Label: k, Value: counts[k]}
	}
	return out
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
