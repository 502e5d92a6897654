package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSetStatus(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())

	for _, s := range []Status{StatusRunning, StatusIdea, StatusComplete, StatusHypothesis} {
		if err := exp.SetStatus(s); err != nil {
			t.Fatalf("SetStatus(%s) failed: %v", s, err)
		}
		if exp.Status != s {
			t.Errorf("expected status %s, got %s", s, exp.Status)
		}
	}

	if err := exp.SetStatus("shipped"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestSetStatus_KeepsResult(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
	exp.Status = StatusComplete
	if err := exp.SetResult(ResultWon); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}

	if err := exp.SetStatus(StatusRunning); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if exp.Result != ResultWon {
		t.Errorf("result should survive a move out of complete, got %q", exp.Result)
	}
	if err := exp.Validate(); err != nil {
		t.Errorf("a kept result should still save, got %v", err)
	}
}

func TestSetStatus_SameStatusIsNoop(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
	v := exp.Version
	if err := exp.SetStatus(StatusIdea); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if exp.Version != v {
		t.Errorf("version bumped on no-op move: %d -> %d", v, exp.Version)
	}
}

func TestArchive(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
	exp.Status = StatusRunning

	if err := exp.Archive(); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if exp.Status != StatusLearnings || !exp.Archived {
		t.Errorf("expected archived learnings, got status=%s archived=%v", exp.Status, exp.Archived)
	}
	if exp.Locked {
		t.Error("archive must not lock")
	}

	v := exp.Version
	if err := exp.Archive(); err != nil {
		t.Fatalf("second Archive failed: %v", err)
	}
	if exp.Version != v {
		t.Error("archiving twice should be idempotent")
	}
}

func TestArchive_Locked(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
	exp.Status = StatusRunning
	exp.Locked = true
	before := exp.Clone()

	if err := exp.Archive(); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if diff := cmp.Diff(before, exp); diff != "" {
		t.Errorf("locked experiment mutated:\n%s", diff)
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name          string
		result        Result
		requireResult bool
		wantErr       error
	}{
		{"no result allowed", ResultNone, false, nil},
		{"with result", ResultWon, true, nil},
		{"result required", ResultNone, true, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
			exp.Status = StatusComplete
			exp.Result = tt.result

			err := exp.Complete(tt.requireResult)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if exp.Locked {
					t.Error("rejected completion must not lock")
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
			if !exp.Locked || !exp.Archived || exp.Status != StatusLearnings {
				t.Errorf("expected locked archived learnings, got locked=%v archived=%v status=%s",
					exp.Locked, exp.Archived, exp.Status)
			}
		})
	}
}

func TestLockedRejectsMutations(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
	exp.Tags = []string{"email"}
	if err := exp.Complete(false); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	before := exp.Clone()
	title := "New title"

	mutations := map[string]func() error{
		"SetStatus":         func() error { return exp.SetStatus(StatusRunning) },
		"Archive":           func() error { return exp.Archive() },
		"Complete":          func() error { return exp.Complete(false) },
		"Apply":             func() error { return exp.Apply(Edit{Title: &title}) },
		"AddTag":            func() error { return exp.AddTag("sms") },
		"RemoveTag":         func() error { return exp.RemoveTag("email") },
		"SetResult":         func() error { return exp.SetResult(ResultWon) },
		"SetLegacyScores":   func() error { return exp.SetLegacyScores(1, 1, 1) },
		"SetDimensionValue": func() error { return exp.SetDimensionValue(DefaultDimensions(), DimensionEase, 1) },
		"SetMetricValue": func() error {
			return exp.SetMetricValue([]MetricDefinition{{ID: "cvr", Name: "CVR"}}, "cvr", nil, nil, nil)
		},
	}

	for name, fn := range mutations {
		if err := fn(); !errors.Is(err, ErrLocked) {
			t.Errorf("%s: expected ErrLocked, got %v", name, err)
		}
	}
	if diff := cmp.Diff(before, exp); diff != "" {
		t.Errorf("locked experiment mutated:\n%s", diff)
	}
}

func TestLockedAcceptsComments(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Checkout copy", "me", time.Now())
	if err := exp.Complete(false); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	err := exp.AddComment(Comment{ID: "c1", AuthorName: "Me", Text: "Shipped to 100%", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("AddComment on locked experiment failed: %v", err)
	}
	if len(exp.Comments) != 1 {
		t.Errorf("expected 1 comment, got %d", len(exp.Comments))
	}
}

func TestRemoveByID(t *testing.T) {
	exps := []*Experiment{{ID: "x1"}, {ID: "x2"}, {ID: "x3"}}

	got := RemoveByID(exps, "x1")
	if len(got) != 2 || got[0].ID != "x2" || got[1].ID != "x3" {
		t.Errorf("unexpected result after removing x1: %v", ids(got))
	}

	if got := RemoveByID(exps, "missing"); len(got) != 3 {
		t.Errorf("removing a missing id should keep all records, got %d", len(got))
	}

	locked := []*Experiment{{ID: "x1", Locked: true}}
	if got := RemoveByID(locked, "x1"); len(got) != 0 {
		t.Error("locked records are deletable")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("running"); err != nil || s != StatusRunning {
		t.Errorf("ParseStatus(running) = %v, %v", s, err)
	}
	if _, err := ParseStatus("Running"); err == nil {
		t.Error("status parsing is case-sensitive")
	}
}

func ids(exps []*Experiment) []string {
	out := make([]string, len(exps))
	for i, e := range exps {
		out[i] = e.ID
	}
	return out
}
