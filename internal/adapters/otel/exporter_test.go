package otel_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/emiliopalmerini/growthops/internal/adapters/otel"
	"github.com/emiliopalmerini/growthops/internal/domain"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected int64 sum, got %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestExporterRecordsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exp, err := otel.NewExporterWithProvider(provider)
	if err != nil {
		t.Fatalf("NewExporterWithProvider failed: %v", err)
	}
	ctx := context.Background()

	e := &domain.Experiment{ID: "e1", BoardID: "b1", Market: "US", Type: "Acquisition", Result: domain.ResultWon}
	exp.RecordExperimentCreated(ctx, e)
	exp.RecordExperimentCreated(ctx, e)
	exp.RecordStatusChange(ctx, domain.StatusIdea, domain.StatusRunning)
	exp.RecordCompleted(ctx, e, 6.7)
	exp.RecordSyncFailure(ctx, "upsert_experiment")

	metrics := collect(t, reader)

	tests := []struct {
		name string
		want int64
	}{
		{"growthops_experiments_created_total", 2},
		{"growthops_status_transitions_total", 1},
		{"growthops_experiments_completed_total", 1},
		{"growthops_sync_failures_total", 1},
	}
	for _, tt := range tests {
		m, ok := metrics[tt.name]
		if !ok {
			t.Errorf("metric %s not exported", tt.name)
			continue
		}
		if got := sumOf(t, m); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}

	hist, ok := metrics["growthops_composite_score"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Sum != 6.7 {
		t.Errorf("unexpected score histogram %+v", metrics["growthops_composite_score"].Data)
	}

	if err := exp.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestNewExporterDisabled(t *testing.T) {
	if _, err := otel.NewExporter(context.Background(), otel.Config{Enabled: false}); err == nil {
		t.Error("expected error for disabled exporter")
	}
	if _, err := otel.NewExporter(context.Background(), otel.Config{Enabled: true}); err == nil {
		t.Error("expected error for missing endpoint")
	}
}
