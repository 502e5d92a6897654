package otel

import (
	"context"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordExperimentCreated(context.Context, *domain.Experiment) {}

func (e *NoOpExporter) RecordStatusChange(context.Context, domain.Status, domain.Status) {}

func (e *NoOpExporter) RecordCompleted(context.Context, *domain.Experiment, float64) {}

func (e *NoOpExporter) RecordSyncFailure(context.Context, string) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
