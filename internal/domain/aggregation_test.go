package domain

import (
	"math"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func withMetric(id string, baseline, target, actual *float64) *Experiment {
	return &Experiment{
		BoardID:      "b1",
		MetricValues: []MetricValue{{MetricID: id, Baseline: baseline, Target: target, Actual: actual}},
	}
}

func TestAggregateMetric_Empty(t *testing.T) {
	def := MetricDefinition{ID: "cvr", Name: "Conversion"}
	got := AggregateMetric(def, nil)

	if got.Count != 0 {
		t.Errorf("expected count 0, got %d", got.Count)
	}
	if got.AvgBaseline != nil || got.AvgTarget != nil || got.AvgActual != nil {
		t.Errorf("expected all averages nil, got %+v", got)
	}
}

func TestAggregateMetric(t *testing.T) {
	def := MetricDefinition{ID: "cvr", Name: "Conversion"}

	tests := []struct {
		name         string
		exps         []*Experiment
		wantCount    int
		wantBaseline *float64
		wantTarget   *float64
		wantActual   *float64
	}{
		{
			name:       "single record",
			exps:       []*Experiment{withMetric("cvr", nil, ptr(4), ptr(5))},
			wantCount:  1,
			wantTarget: ptr(4),
			wantActual: ptr(5),
		},
		{
			name: "nulls skipped per field",
			exps: []*Experiment{
				withMetric("cvr", ptr(2), ptr(4), nil),
				withMetric("cvr", ptr(4), nil, nil),
				withMetric("cvr", nil, ptr(6), ptr(7)),
			},
			wantCount:    3,
			wantBaseline: ptr(3),
			wantTarget:   ptr(5),
			wantActual:   ptr(7),
		},
		{
			name: "other metrics ignored",
			exps: []*Experiment{
				withMetric("mrr", ptr(100), ptr(200), ptr(300)),
				{BoardID: "b1"},
			},
			wantCount: 0,
		},
		{
			name:      "recorded but all null",
			exps:      []*Experiment{withMetric("cvr", nil, nil, nil)},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateMetric(def, tt.exps)
			if got.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", got.Count, tt.wantCount)
			}
			assertOptional(t, "AvgBaseline", tt.wantBaseline, got.AvgBaseline)
			assertOptional(t, "AvgTarget", tt.wantTarget, got.AvgTarget)
			assertOptional(t, "AvgActual", tt.wantActual, got.AvgActual)
		})
	}
}

func TestMetricHit(t *testing.T) {
	tests := []struct {
		name    string
		mv      MetricValue
		wantHit bool
		wantOK  bool
	}{
		{"actual above target", MetricValue{Target: ptr(4), Actual: ptr(5)}, true, true},
		{"tie is a hit", MetricValue{Target: ptr(4), Actual: ptr(4)}, true, true},
		{"below target", MetricValue{Target: ptr(4), Actual: ptr(3)}, false, true},
		{"missing actual", MetricValue{Target: ptr(4)}, false, false},
		{"missing target", MetricValue{Actual: ptr(4)}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := MetricHit(tt.mv)
			if hit != tt.wantHit || ok != tt.wantOK {
				t.Errorf("MetricHit() = %v, %v; want %v, %v", hit, ok, tt.wantHit, tt.wantOK)
			}
		})
	}
}

func TestAggregateMetric_ImpliesHit(t *testing.T) {
	exp := withMetric("cvr", nil, ptr(4), ptr(5))
	summary := AggregateMetric(MetricDefinition{ID: "cvr"}, []*Experiment{exp})

	if hit, ok := summary.Hit(); !ok || !hit {
		t.Errorf("summary Hit() = %v, %v; want true, true", hit, ok)
	}
	if hit, ok := MetricHit(exp.MetricValues[0]); !ok || !hit {
		t.Errorf("record MetricHit() = %v, %v; want true, true", hit, ok)
	}
}

func TestMetricSummary_Progress(t *testing.T) {
	tests := []struct {
		name    string
		summary MetricSummary
		want    float64
	}{
		{"halfway", MetricSummary{AvgBaseline: ptr(2), AvgTarget: ptr(4), AvgActual: ptr(3)}, 50},
		{"past target clamps", MetricSummary{AvgBaseline: ptr(2), AvgTarget: ptr(4), AvgActual: ptr(9)}, 100},
		{"regression clamps", MetricSummary{AvgBaseline: ptr(2), AvgTarget: ptr(4), AvgActual: ptr(1)}, 0},
		{"no actual", MetricSummary{AvgBaseline: ptr(2), AvgTarget: ptr(4)}, 0},
		{"flat target", MetricSummary{AvgBaseline: ptr(4), AvgTarget: ptr(4), AvgActual: ptr(5)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFloatNear(t, "Progress", tt.want, tt.summary.Progress())
		})
	}
}

func TestSummarizeBoard(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	board := &Board{ID: "b1", Name: "Growth", Config: &BoardConfig{
		Metrics:    []MetricDefinition{{ID: "cvr", Name: "Conversion", Format: FormatPercent}},
		Dimensions: DefaultDimensions(),
	}}

	exps := []*Experiment{
		{ID: "1", BoardID: "b1", Status: StatusIdea, Impact: 9, Confidence: 7, Ease: 4, Market: "US", Type: "Acquisition", CreatedAt: now},
		{ID: "2", BoardID: "b1", Status: StatusRunning, Impact: 5, Confidence: 5, Ease: 5, Market: "UK", Type: "Retention", CreatedAt: now,
			MetricValues: []MetricValue{{MetricID: "cvr", Baseline: ptr(2), Target: ptr(3), Actual: ptr(3.5)}}},
		{ID: "3", BoardID: "b1", Status: StatusLearnings, Archived: true, Result: ResultWon, Impact: 1, Confidence: 1, Ease: 1, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "4", BoardID: "b1", Status: StatusComplete, Result: ResultLost, Impact: 3, Confidence: 3, Ease: 3, Market: "US", Type: "Acquisition", CreatedAt: now.Add(-60 * 24 * time.Hour)},
		{ID: "5", BoardID: "b1", Status: StatusLearnings, Archived: true, CreatedAt: now},
		{ID: "other", BoardID: "b2", Status: StatusComplete, Result: ResultWon, CreatedAt: now},
	}

	got := SummarizeBoard(board, exps, now)

	if got.Active != 3 {
		t.Errorf("Active = %d, want 3", got.Active)
	}
	if got.Completed != 3 {
		t.Errorf("Completed = %d, want 3", got.Completed)
	}
	if got.WinRate != 50 {
		t.Errorf("WinRate = %d, want 50", got.WinRate)
	}
	if got.Velocity != 2 {
		t.Errorf("Velocity = %d, want 2", got.Velocity)
	}
	// (6.7 + 5.0 + 3.0) / 3
	assertFloatNear(t, "AvgScore", 4.9, got.AvgScore)

	if len(got.Metrics) != 1 || got.Metrics[0].Count != 1 {
		t.Fatalf("expected one metric summary with count 1, got %+v", got.Metrics)
	}
	assertOptional(t, "cvr actual", ptr(3.5), got.Metrics[0].AvgActual)

	if got.ByType[0].Label != "Acquisition" || got.ByType[0].Value != 2 {
		t.Errorf("ByType[0] = %+v, want Acquisition=2", got.ByType[0])
	}
	if got.ByStatus[0].Label != "Idea/Backlog" || got.ByStatus[0].Value != 1 {
		t.Errorf("ByStatus[0] = %+v, want Idea/Backlog=1", got.ByStatus[0])
	}
	if len(got.ByMarket) != len(Markets) {
		t.Errorf("ByMarket should list every market, got %d", len(got.ByMarket))
	}
}

func TestSummarizeBoard_Empty(t *testing.T) {
	got := SummarizeBoard(&Board{ID: "b1"}, nil, time.Now())
	if got.Active != 0 || got.WinRate != 0 || got.AvgScore != 0 {
		t.Errorf("expected zero summary, got %+v", got)
	}
	if got.Metrics == nil {
		t.Error("Metrics should be an empty slice, not nil")
	}
}

func assertOptional(t *testing.T, name string, want, got *float64) {
	t.Helper()
	switch {
	case want == nil && got == nil:
	case want == nil:
		t.Errorf("%s: expected nil, got %v", name, *got)
	case got == nil:
		t.Errorf("%s: expected %v, got nil", name, *want)
	default:
		assertFloatNear(t, name, *want, *got)
	}
}

func assertFloatNear(t *testing.T, name string, expected, actual float64) {
	t.Helper()
	if math.Abs(expected-actual) > 0.0001 {
		t.Errorf("%s: expected %.6f, got %.6f", name, expected, actual)
	}
}

func TestWeeklyIntake(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	exps := []*Experiment{
		{CreatedAt: now},
		{CreatedAt: now.Add(-6 * day)},
		{CreatedAt: now.Add(-7 * day)},
		{CreatedAt: now.Add(-20 * day)},
		{CreatedAt: now.Add(-30 * day)},
		{CreatedAt: now.Add(time.Hour)},
	}

	got := WeeklyIntake(exps, now, 4)
	want := []int{0, 1, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("WeeklyIntake returned %d buckets, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %d, want %d (all %v)", i, got[i], want[i], got)
		}
	}

	if got := WeeklyIntake(exps, now, 0); got != nil {
		t.Errorf("expected nil for zero weeks, got %v", got)
	}
}
