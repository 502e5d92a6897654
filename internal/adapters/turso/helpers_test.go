package turso_test

import (
	"context"
	"testing"
	"time"

	"github.com/emiliopalmerini/growthops/internal/adapters/turso"
	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/migrate"
)

func testDB(t *testing.T) *turso.DB {
	t.Helper()

	db, err := turso.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	ctx := context.Background()
	if err := migrate.RunAll(ctx, db.DB); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testBoard(id string) *domain.Board {
	cfg := domain.DefaultBoardConfig()
	cfg.Metrics = []domain.MetricDefinition{{ID: "cvr", Name: "Conversion", Format: domain.FormatPercent}}
	return &domain.Board{
		ID:        id,
		Name:      "Growth " + id,
		CreatedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		Config:    &cfg,
		Version:   1,
	}
}

func testExperiment(id, boardID string, created time.Time) *domain.Experiment {
	return domain.NewExperiment(id, boardID, "Experiment "+id, "Me", created)
}

func fptr(v float64) *float64 { return &v }
