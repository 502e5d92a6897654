package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/growthops/internal/adapters/memory"
	"github.com/emiliopalmerini/growthops/internal/domain"
)

func TestLoad(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.Seed(testNow)

	if err := h.svc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h.store.syncs != 1 {
		t.Errorf("expected replica sync before fetch, got %d", h.store.syncs)
	}
	if got := len(h.svc.Boards()); got != 2 {
		t.Errorf("expected 2 boards, got %d", got)
	}
	if got := len(h.svc.Experiments(memory.DemoGrowthBoardID)); got != 5 {
		t.Errorf("expected 5 growth experiments, got %d", got)
	}
}

func TestLoadKeepsPendingWrites(t *testing.T) {
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "Pending idea")

	// Nothing has reached the store yet.
	if err := h.svc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := h.svc.Experiment(e.ID); err != nil {
		t.Errorf("pending experiment lost on reload: %v", err)
	}
	if h.svc.Pending() != 2 {
		t.Errorf("expected 2 pending writes, got %d", h.svc.Pending())
	}
}

func TestCreateExperimentIsOptimistic(t *testing.T) {
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "  Welcome email  ")

	if e.Title != "Welcome email" || e.Status != domain.StatusIdea || e.Version != 1 {
		t.Errorf("unexpected new experiment %+v", e)
	}
	if _, err := h.store.GetExperiment(context.Background(), e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("store should not see the experiment before flush, got %v", err)
	}

	h.flush(t)
	stored, err := h.store.GetExperiment(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetExperiment after flush: %v", err)
	}
	if diff := cmp.Diff(e, stored); diff != "" {
		t.Errorf("stored experiment (-local +stored):\n%s", diff)
	}
	if h.metrics.created != 1 {
		t.Errorf("expected 1 created metric, got %d", h.metrics.created)
	}
}

func TestCreateExperimentUnknownBoard(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.svc.CreateExperiment(context.Background(), NewExperimentInput{BoardID: "nope", Title: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.svc.CreateExperiment(context.Background(), NewExperimentInput{BoardID: h.board(t, "B").ID, Title: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for blank title, got %v", err)
	}
	if h.svc.Pending() != 1 {
		t.Errorf("rejected creates should not queue writes, pending = %d", h.svc.Pending())
	}
}

func TestCustomScoringScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Product")

	cfg := domain.BoardConfig{
		Dimensions:          []domain.DimensionDefinition{{ID: "strategic", Name: "Strategic", Min: 1, Max: 5}},
		UseCustomDimensions: true,
	}
	if _, err := h.svc.SaveBoardConfig(ctx, b.ID, cfg); err != nil {
		t.Fatalf("SaveBoardConfig failed: %v", err)
	}

	e := h.experiment(t, b.ID, "Bet")
	if got := h.svc.Score(e); got != 3.0 {
		t.Errorf("seeded score = %v, want midpoint 3.0", got)
	}

	e, err := h.svc.SetDimensionScore(ctx, e.ID, "strategic", 4)
	if err != nil {
		t.Fatalf("SetDimensionScore failed: %v", err)
	}
	if got := h.svc.Score(e); got != 4.0 {
		t.Errorf("score = %v, want 4.0", got)
	}

	_, err = h.svc.SetDimensionScore(ctx, e.ID, "strategic", 6)
	var rangeErr *domain.RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	after, _ := h.svc.Experiment(e.ID)
	if after.Version != e.Version {
		t.Error("rejected score should not bump the version")
	}
}

func TestCustomScoringReservedDimensions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Product")

	wide := domain.BoardConfig{
		Dimensions:          []domain.DimensionDefinition{{ID: domain.DimensionImpact, Name: "Impact", Min: 0, Max: 20}},
		UseCustomDimensions: true,
	}
	if _, err := h.svc.SaveBoardConfig(ctx, b.ID, wide); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for reserved id off the ICE scale, got %v", err)
	}

	cfg := domain.BoardConfig{
		Dimensions: []domain.DimensionDefinition{
			{ID: "reach", Name: "Reach", Min: 1, Max: 5},
			{ID: domain.DimensionImpact, Name: "Impact", Min: domain.LegacyMin, Max: domain.LegacyMax},
		},
		UseCustomDimensions: true,
	}
	if _, err := h.svc.SaveBoardConfig(ctx, b.ID, cfg); err != nil {
		t.Fatalf("SaveBoardConfig failed: %v", err)
	}
	e := h.experiment(t, b.ID, "Bet")

	tests := []struct {
		name    string
		dim     string
		value   int
		wantErr bool
	}{
		{"reserved in range", domain.DimensionImpact, 9, false},
		{"reserved at max", domain.DimensionImpact, domain.LegacyMax, false},
		{"reserved above max", domain.DimensionImpact, domain.LegacyMax + 1, true},
		{"custom in range", "reach", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.svc.SetDimensionScore(ctx, e.ID, tt.dim, tt.value)
			if tt.wantErr {
				var rangeErr *domain.RangeError
				if !errors.As(err, &rangeErr) {
					t.Errorf("expected RangeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDimensionScore failed: %v", err)
			}
			if v, _ := got.DimensionValue(tt.dim); v != tt.value {
				t.Errorf("%s = %d, want %d", tt.dim, v, tt.value)
			}
			if tt.dim == domain.DimensionImpact && got.Impact != tt.value {
				t.Errorf("legacy impact = %d, want %d", got.Impact, tt.value)
			}
		})
	}
}

func TestLegacyScoringScenario(t *testing.T) {
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "Checklist")

	e, err := h.svc.SetLegacyScores(context.Background(), e.ID, 9, 7, 4)
	if err != nil {
		t.Fatalf("SetLegacyScores failed: %v", err)
	}
	if got := h.svc.Score(e); got != 6.7 {
		t.Errorf("score = %v, want 6.7", got)
	}
}

func TestStatusAndCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "Annual plan")

	if _, err := h.svc.SetStatus(ctx, e.ID, domain.StatusComplete); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if _, err := h.svc.SetResult(ctx, e.ID, domain.ResultWon); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}
	done, err := h.svc.Complete(ctx, e.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !done.Locked || !done.Archived || done.Status != domain.StatusLearnings {
		t.Errorf("unexpected completed state %+v", done)
	}

	wantTransitions := []string{"idea->complete", "complete->learnings"}
	if diff := cmp.Diff(wantTransitions, h.metrics.transitions); diff != "" {
		t.Errorf("transitions (-want +got):\n%s", diff)
	}
	if len(h.metrics.completed) != 1 || h.metrics.completed[0] != 5.0 {
		t.Errorf("completed metric = %v", h.metrics.completed)
	}

	if _, err := h.svc.SetResult(ctx, e.ID, domain.ResultLost); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if _, err := h.svc.AddTag(ctx, e.ID, "late"); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("expected ErrLocked for tag, got %v", err)
	}
	withComment, err := h.svc.AddComment(ctx, e.ID, CommentInput{AuthorID: "u1", AuthorName: "Me", Text: "Shipped to all"})
	if err != nil {
		t.Fatalf("AddComment on locked failed: %v", err)
	}
	if len(withComment.Comments) != 1 || !withComment.Comments[0].Timestamp.Equal(testNow) {
		t.Errorf("unexpected comments %+v", withComment.Comments)
	}
}

func TestSetStatusKeepsResult(t *testing.T) {
	tests := []struct {
		name   string
		status domain.Status
	}{
		{"back to idea", domain.StatusIdea},
		{"back to prioritized", domain.StatusHypothesis},
		{"back to running", domain.StatusRunning},
		{"on to learnings", domain.StatusLearnings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, Options{})
			b := h.board(t, "Growth")
			e := h.experiment(t, b.ID, "Annual plan")

			if _, err := h.svc.SetStatus(ctx, e.ID, domain.StatusComplete); err != nil {
				t.Fatalf("SetStatus complete failed: %v", err)
			}
			if _, err := h.svc.SetResult(ctx, e.ID, domain.ResultWon); err != nil {
				t.Fatalf("SetResult failed: %v", err)
			}

			moved, err := h.svc.SetStatus(ctx, e.ID, tt.status)
			if err != nil {
				t.Fatalf("SetStatus %s failed: %v", tt.status, err)
			}
			if moved.Status != tt.status || moved.Result != domain.ResultWon {
				t.Errorf("got status %s result %q, want %s and won", moved.Status, moved.Result, tt.status)
			}

			h.flush(t)
			stored, err := h.store.GetExperiment(ctx, e.ID)
			if err != nil {
				t.Fatalf("GetExperiment failed: %v", err)
			}
			if stored.Status != tt.status || stored.Result != domain.ResultWon {
				t.Errorf("stored status %s result %q", stored.Status, stored.Result)
			}
		})
	}
}

func TestSetResultNeedsFinishedStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	e := h.experiment(t, b.ID, "Referral credit")

	if _, err := h.svc.SetResult(ctx, e.ID, domain.ResultWon); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for result on an idea, got %v", err)
	}
}

func TestCompleteRequiresResult(t *testing.T) {
	tests := []struct {
		name    string
		require bool
		wantErr error
	}{
		{"optional", false, nil},
		{"required", true, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{RequireResultOnComplete: tt.require})
			e := h.experiment(t, h.board(t, "B").ID, "No outcome")
			_, err := h.svc.Complete(context.Background(), e.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Complete() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	var ids []string
	for _, title := range []string{"x1", "x2", "x3"} {
		ids = append(ids, h.experiment(t, b.ID, title).ID)
	}
	h.flush(t)

	if _, err := h.svc.Complete(ctx, ids[0]); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := h.svc.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("Delete of locked experiment failed: %v", err)
	}
	if got := len(h.svc.Experiments(b.ID)); got != 2 {
		t.Errorf("expected 2 experiments, got %d", got)
	}
	if err := h.svc.Delete(ctx, ids[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}

	h.flush(t)
	stored, _ := h.store.FetchExperiments(ctx)
	if len(stored) != 2 {
		t.Errorf("store kept %d experiments, want 2", len(stored))
	}
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")
	low := h.experiment(t, b.ID, "Low")
	high := h.experiment(t, b.ID, "High")
	if _, err := h.svc.SetLegacyScores(ctx, high.ID, 9, 9, 9); err != nil {
		t.Fatalf("SetLegacyScores failed: %v", err)
	}
	if _, err := h.svc.AddTag(ctx, low.ID, "Pricing"); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}

	cols, err := h.svc.Kanban(b.ID)
	if err != nil {
		t.Fatalf("Kanban failed: %v", err)
	}
	var idea []string
	for _, e := range cols[0].Experiments {
		idea = append(idea, e.Title)
	}
	if diff := cmp.Diff([]string{"High", "Low"}, idea); diff != "" {
		t.Errorf("idea column (-want +got):\n%s", diff)
	}

	vault := h.svc.Vault(domain.VaultFilter{Search: "pricing"})
	if len(vault) != 1 || vault[0].ID != low.ID {
		t.Errorf("vault search returned %v", vault)
	}

	stats, err := h.svc.Analytics(b.ID)
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if stats.Active != 2 || stats.AvgScore != 7.0 {
		t.Errorf("unexpected analytics %+v", stats)
	}

	if _, err := h.svc.Kanban("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.svc.Analytics("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBoard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	b := h.board(t, "Growth")

	name := "Growth Team"
	got, err := h.svc.UpdateBoard(ctx, b.ID, BoardEdit{Name: &name})
	if err != nil {
		t.Fatalf("UpdateBoard failed: %v", err)
	}
	if got.Name != name || got.Version != 2 {
		t.Errorf("unexpected board %+v", got)
	}

	blank := " "
	if _, err := h.svc.UpdateBoard(ctx, b.ID, BoardEdit{Name: &blank}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := h.svc.SaveBoardConfig(ctx, b.ID, domain.BoardConfig{UseCustomDimensions: true}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty custom dimensions, got %v", err)
	}
	current, _ := h.svc.Board(b.ID)
	if current.Name != name {
		t.Errorf("rejected edit changed the board: %q", current.Name)
	}
}
