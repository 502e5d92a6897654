package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

func TestWriteQueueCoalescesInOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e1 := h.experiment(t, b.ID, "First")
	e2 := h.experiment(t, b.ID, "Second")
	for _, tag := range []string{"a", "b", "c"} {
		if _, err := h.svc.AddTag(ctx, e1.ID, tag); err != nil {
			t.Fatalf("AddTag failed: %v", err)
		}
	}

	if got := h.svc.Pending(); got != 3 {
		t.Fatalf("expected 3 coalesced writes, got %d", got)
	}
	h.flush(t)

	want := []string{"board:" + b.ID, "experiment:" + e1.ID, "experiment:" + e2.ID}
	if diff := cmp.Diff(want, h.store.written()); diff != "" {
		t.Errorf("write order (-want +got):\n%s", diff)
	}
	stored, err := h.store.GetExperiment(ctx, e1.ID)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, stored.Tags); diff != "" {
		t.Errorf("latest snapshot not stored (-want +got):\n%s", diff)
	}
	if h.svc.Pending() != 0 {
		t.Errorf("expected empty queue, got %d", h.svc.Pending())
	}
}

func TestWriteQueueKeepsFailedWrites(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "Offline edit")

	h.store.setFailing(true)
	err := h.svc.Flush(ctx)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if h.svc.Pending() != 2 {
		t.Errorf("failed writes should stay queued, pending = %d", h.svc.Pending())
	}
	if _, err := h.svc.Experiment(e.ID); err != nil {
		t.Errorf("local state rolled back: %v", err)
	}
	if got := h.logs.FilterMessage("sync failed").FilterLevelExact(zapcore.ErrorLevel).Len(); got != 2 {
		t.Errorf("expected 2 sync failure logs, got %d", got)
	}
	if diff := cmp.Diff([]string{"upsert_board", "upsert_experiment"}, h.metrics.syncFailures); diff != "" {
		t.Errorf("sync failure metrics (-want +got):\n%s", diff)
	}

	// An edit made while offline replaces the queued snapshot.
	title := "Offline edit v2"
	if _, err := h.svc.EditExperiment(ctx, e.ID, domain.Edit{Title: &title}); err != nil {
		t.Fatalf("EditExperiment failed: %v", err)
	}
	if h.svc.Pending() != 2 {
		t.Errorf("edit should coalesce with the queued write, pending = %d", h.svc.Pending())
	}

	h.store.setFailing(false)
	h.flush(t)
	stored, err := h.store.GetExperiment(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if stored.Title != title {
		t.Errorf("stored title = %q, want %q", stored.Title, title)
	}
	if diff := cmp.Diff([]string{"board:" + b.ID, "experiment:" + e.ID}, h.store.written()); diff != "" {
		t.Errorf("retry order (-want +got):\n%s", diff)
	}
}

func TestWriteQueueConflictKeepsRemote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "Local title")
	h.flush(t)

	// Another client wrote a newer version.
	remote := e.Clone()
	remote.Title = "Remote title"
	remote.Version = 10
	if err := h.store.Store.UpsertExperiment(ctx, remote); err != nil {
		t.Fatalf("seed remote version: %v", err)
	}

	if _, err := h.svc.AddTag(ctx, e.ID, "local"); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if err := h.svc.Flush(ctx); err != nil {
		t.Fatalf("conflicts should not fail the flush: %v", err)
	}

	got, err := h.svc.Experiment(e.ID)
	if err != nil {
		t.Fatalf("Experiment failed: %v", err)
	}
	if got.Title != "Remote title" || got.Version != 10 || len(got.Tags) != 0 {
		t.Errorf("expected the stored record to win, got %+v", got)
	}
	if h.svc.Pending() != 0 {
		t.Errorf("conflicting write should be dropped, pending = %d", h.svc.Pending())
	}
	if h.logs.FilterMessage("stale write rejected, keeping stored version").Len() != 1 {
		t.Error("expected a conflict warning")
	}
}

func TestWriteQueueCanceledFlush(t *testing.T) {
	h := newHarness(t, Options{})
	h.board(t, "Growth")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.svc.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.svc.Pending() != 1 {
		t.Errorf("interrupted writes should stay queued, pending = %d", h.svc.Pending())
	}
}

func TestWriteQueueRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.svc.Run(ctx, time.Hour)
		close(done)
	}()

	b := h.board(t, "Growth")

	deadline := time.After(5 * time.Second)
	for len(h.store.written()) == 0 {
		select {
		case <-deadline:
			t.Fatal("enqueued write was not flushed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if _, err := h.store.GetBoard(context.Background(), b.ID); err != nil {
		t.Errorf("board not stored: %v", err)
	}

	cancel()
	<-done

	if err := h.svc.Close(context.Background()); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
