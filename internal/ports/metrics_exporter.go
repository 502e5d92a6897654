package ports

import (
	"context"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

// MetricsExporter exports workspace activity to an external observability system.
type MetricsExporter interface {
	// RecordExperimentCreated counts a newly created experiment.
	RecordExperimentCreated(ctx context.Context, e *domain.Experiment)
	// RecordStatusChange counts a move between kanban columns.
	RecordStatusChange(ctx context.Context, from, to domain.Status)
	// RecordCompleted counts a completion and records its composite score.
	RecordCompleted(ctx context.Context, e *domain.Experiment, score float64)
	// RecordSyncFailure counts a write that failed to reach the store.
	RecordSyncFailure(ctx context.Context, op string)
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
