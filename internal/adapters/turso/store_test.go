package turso_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/growthops/internal/adapters/turso"
	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/ports"
)

func TestBoardRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := turso.NewBoardRepository(db.DB)

	board := testBoard("b1")
	if err := repo.Upsert(ctx, board); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "b1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if diff := cmp.Diff(board, got); diff != "" {
		t.Errorf("board round trip (-want +got):\n%s", diff)
	}

	// Same version is stale.
	board.Name = "Renamed"
	if err := repo.Upsert(ctx, board); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict for same version, got %v", err)
	}

	board.Version = 2
	if err := repo.Upsert(ctx, board); err != nil {
		t.Fatalf("Upsert v2 failed: %v", err)
	}
	got, _ = repo.GetByID(ctx, "b1")
	if got.Name != "Renamed" || got.Version != 2 {
		t.Errorf("expected renamed v2, got %q v%d", got.Name, got.Version)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBoardRepository_NilConfig(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := turso.NewBoardRepository(db.DB)

	board := &domain.Board{ID: "b1", Name: "Bare", CreatedAt: time.Now().UTC(), Version: 1}
	if err := repo.Upsert(ctx, board); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, err := repo.GetByID(ctx, "b1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Config != nil {
		t.Errorf("expected nil config, got %+v", got.Config)
	}
}

func TestStoreExperimentRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	store := turso.NewStore(db)

	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	exp := testExperiment("e1", "b1", created)
	exp.Description = "Send a **welcome** email"
	exp.Status = domain.StatusComplete
	exp.Result = domain.ResultWon
	exp.Tags = []string{"email", "onboarding"}
	exp.DimensionScores = []domain.DimensionScore{{DimensionID: "strategic", Value: 4}}
	exp.MetricValues = []domain.MetricValue{{MetricID: "cvr", Baseline: fptr(2), Target: fptr(4), Actual: nil}}
	exp.Comments = []domain.Comment{
		{ID: "c1", AuthorID: "u1", AuthorName: "Me", Text: "first", Timestamp: created},
		{ID: "c2", AuthorID: "u2", AuthorName: "Sam", Text: "second", Timestamp: created.Add(time.Minute), HasAttachment: true},
	}

	if err := store.UpsertExperiment(ctx, exp); err != nil {
		t.Fatalf("UpsertExperiment failed: %v", err)
	}

	got, err := store.GetExperiment(ctx, "e1")
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("experiment round trip (-want +got):\n%s", diff)
	}

	all, err := store.FetchExperiments(ctx)
	if err != nil {
		t.Fatalf("FetchExperiments failed: %v", err)
	}
	if len(all) != 1 || len(all[0].Comments) != 2 {
		t.Fatalf("expected one experiment with 2 comments, got %d", len(all))
	}
	if all[0].Comments[0].ID != "c1" {
		t.Errorf("comments out of order: %v", all[0].Comments)
	}
}

func TestStoreExperimentVersionGuard(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	store := turso.NewStore(db)

	exp := testExperiment("e1", "b1", time.Now().UTC())
	if err := store.UpsertExperiment(ctx, exp); err != nil {
		t.Fatalf("UpsertExperiment failed: %v", err)
	}

	stale := exp.Clone()
	stale.Title = "Stale write"
	if err := store.UpsertExperiment(ctx, stale); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := exp.AddTag("retry"); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if err := exp.AddComment(domain.Comment{ID: "c1", Text: "hello", Timestamp: time.Now().UTC()}); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if err := store.UpsertExperiment(ctx, exp); err != nil {
		t.Fatalf("UpsertExperiment newer failed: %v", err)
	}

	got, err := store.GetExperiment(ctx, "e1")
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if got.Title == "Stale write" {
		t.Error("stale write was applied")
	}
	if got.Version != exp.Version || len(got.Comments) != 1 {
		t.Errorf("expected v%d with 1 comment, got v%d with %d", exp.Version, got.Version, len(got.Comments))
	}
}

func TestStoreDeleteExperiment(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	store := turso.NewStore(db)

	now := time.Now().UTC()
	for _, id := range []string{"x1", "x2", "x3"} {
		exp := testExperiment(id, "b1", now)
		exp.Comments = []domain.Comment{{ID: "c-" + id, Text: "note", Timestamp: now}}
		if err := store.UpsertExperiment(ctx, exp); err != nil {
			t.Fatalf("UpsertExperiment %s failed: %v", id, err)
		}
	}

	if err := store.DeleteExperiment(ctx, "x1"); err != nil {
		t.Fatalf("DeleteExperiment failed: %v", err)
	}

	all, err := store.FetchExperiments(ctx)
	if err != nil {
		t.Fatalf("FetchExperiments failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 experiments after delete, got %d", len(all))
	}

	var orphans int
	if err := db.QueryRow(`SELECT COUNT(*) FROM comments WHERE experiment_id = 'x1'`).Scan(&orphans); err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected comments removed with experiment, found %d", orphans)
	}

	if err := store.DeleteExperiment(ctx, "x1"); err != nil {
		t.Errorf("deleting a missing experiment should succeed, got %v", err)
	}
	if _, err := store.GetExperiment(ctx, "x1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExperimentRepository_ListByBoard(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := turso.NewExperimentRepository(db.DB)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []struct {
		id, board string
		offset    time.Duration
	}{
		{"old", "b1", 0},
		{"new", "b1", time.Hour},
		{"other", "b2", 2 * time.Hour},
	}
	for _, f := range fixtures {
		if err := repo.Upsert(ctx, testExperiment(f.id, f.board, base.Add(f.offset))); err != nil {
			t.Fatalf("Upsert %s failed: %v", f.id, err)
		}
	}

	got, err := repo.ListByBoard(ctx, "b1")
	if err != nil {
		t.Fatalf("ListByBoard failed: %v", err)
	}
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"new", "old"}, ids); diff != "" {
		t.Errorf("ListByBoard (-want +got):\n%s", diff)
	}

	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing row, got %v", err)
	}
}

func TestStoreSyncLocal(t *testing.T) {
	db := testDB(t)
	if db.Remote() {
		t.Fatal("in-memory database should not be remote")
	}
	if err := turso.NewStore(db).Sync(); err != nil {
		t.Errorf("Sync on local database should be a no-op, got %v", err)
	}
}
