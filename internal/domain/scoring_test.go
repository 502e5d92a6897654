package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func customBoard(dims ...DimensionDefinition) *Board {
	return &Board{
		ID:   "b1",
		Name: "Growth",
		Config: &BoardConfig{
			Dimensions:          dims,
			UseCustomDimensions: true,
		},
	}
}

func TestCompositeScore(t *testing.T) {
	defaultBoard := &Board{ID: "b1", Name: "Growth", Config: &BoardConfig{Dimensions: DefaultDimensions()}}
	strategic := DimensionDefinition{ID: "strategic", Name: "Strategic", Min: 1, Max: 5}

	tests := []struct {
		name     string
		exp      *Experiment
		board    *Board
		expected float64
	}{
		{
			name:     "default ICE",
			exp:      &Experiment{Impact: 9, Confidence: 7, Ease: 4},
			board:    defaultBoard,
			expected: 6.7,
		},
		{
			name: "default ICE ignores dimension scores",
			exp: &Experiment{Impact: 9, Confidence: 7, Ease: 4, DimensionScores: []DimensionScore{
				{DimensionID: "strategic", Value: 1},
			}},
			board:    defaultBoard,
			expected: 6.7,
		},
		{
			name:     "nil board uses ICE",
			exp:      &Experiment{Impact: 5, Confidence: 5, Ease: 6},
			board:    nil,
			expected: 5.3,
		},
		{
			name: "custom dimension",
			exp: &Experiment{Impact: 9, Confidence: 9, Ease: 9, DimensionScores: []DimensionScore{
				{DimensionID: "strategic", Value: 4},
			}},
			board:    customBoard(strategic),
			expected: 4.0,
		},
		{
			name: "custom dimensions mean",
			exp: &Experiment{DimensionScores: []DimensionScore{
				{DimensionID: "a", Value: 3},
				{DimensionID: "b", Value: 4},
				{DimensionID: "c", Value: 4},
			}},
			board:    customBoard(),
			expected: 3.7,
		},
		{
			name:     "custom without scores falls back to ICE",
			exp:      &Experiment{Impact: 9, Confidence: 7, Ease: 4},
			board:    customBoard(),
			expected: 6.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompositeScore(tt.exp, tt.board)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CompositeScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSetDimensionValue_OutOfRange(t *testing.T) {
	dims := []DimensionDefinition{{ID: "strategic", Name: "Strategic", Min: 1, Max: 5}}

	for _, v := range []int{0, 6, -3} {
		exp := NewExperiment("e1", "b1", "Onboarding email", "me", time.Now())
		before := exp.Clone()

		err := exp.SetDimensionValue(dims, "strategic", v)

		var rangeErr *RangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("value %d: expected RangeError, got %v", v, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("value %d: RangeError should be a validation error", v)
		}
		if diff := cmp.Diff(before, exp); diff != "" {
			t.Errorf("value %d: experiment mutated (-before +after):\n%s", v, diff)
		}
	}
}

func TestSetDimensionValue_Upsert(t *testing.T) {
	dims := []DimensionDefinition{{ID: "strategic", Name: "Strategic", Min: 1, Max: 5}}
	exp := NewExperiment("e1", "b1", "Pricing page", "me", time.Now())

	if err := exp.SetDimensionValue(dims, "strategic", 2); err != nil {
		t.Fatalf("SetDimensionValue failed: %v", err)
	}
	if err := exp.SetDimensionValue(dims, "strategic", 4); err != nil {
		t.Fatalf("SetDimensionValue failed: %v", err)
	}

	want := []DimensionScore{{DimensionID: "strategic", Value: 4}}
	if diff := cmp.Diff(want, exp.DimensionScores); diff != "" {
		t.Errorf("dimension scores (-want +got):\n%s", diff)
	}
	if exp.Version != 3 {
		t.Errorf("expected version 3 after two writes, got %d", exp.Version)
	}
}

func TestSetDimensionValue_SyncsLegacyFields(t *testing.T) {
	tests := []struct {
		id    string
		field func(*Experiment) int
	}{
		{DimensionImpact, func(e *Experiment) int { return e.Impact }},
		{DimensionConfidence, func(e *Experiment) int { return e.Confidence }},
		{DimensionEase, func(e *Experiment) int { return e.Ease }},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			exp := NewExperiment("e1", "b1", "Referral loop", "me", time.Now())
			if err := exp.SetDimensionValue(DefaultDimensions(), tt.id, 8); err != nil {
				t.Fatalf("SetDimensionValue failed: %v", err)
			}
			if got := tt.field(exp); got != 8 {
				t.Errorf("legacy field = %d, want 8", got)
			}
			if v, ok := exp.DimensionValue(tt.id); !ok || v != 8 {
				t.Errorf("DimensionValue = %d, %v; want 8, true", v, ok)
			}
		})
	}
}

func TestSetDimensionValue_ReservedIDWithoutDefinition(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Referral loop", "me", time.Now())
	dims := []DimensionDefinition{{ID: "strategic", Name: "Strategic", Min: 1, Max: 5}}

	if err := exp.SetDimensionValue(dims, DimensionEase, 9); err != nil {
		t.Fatalf("reserved id should fall back to ICE bounds: %v", err)
	}
	if exp.Ease != 9 {
		t.Errorf("expected ease 9, got %d", exp.Ease)
	}
}

func TestSetDimensionValue_UnknownDimension(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Referral loop", "me", time.Now())
	err := exp.SetDimensionValue(DefaultDimensions(), "nope", 3)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetDimensionValue_Locked(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Referral loop", "me", time.Now())
	exp.Locked = true
	before := exp.Clone()

	err := exp.SetDimensionValue(DefaultDimensions(), DimensionImpact, 3)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if diff := cmp.Diff(before, exp); diff != "" {
		t.Errorf("locked experiment mutated:\n%s", diff)
	}
}

func TestSetLegacyScores(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Referral loop", "me", time.Now())
	SeedDimensionScores(exp, DefaultDimensions())

	if err := exp.SetLegacyScores(9, 7, 4); err != nil {
		t.Fatalf("SetLegacyScores failed: %v", err)
	}
	if exp.Impact != 9 || exp.Confidence != 7 || exp.Ease != 4 {
		t.Errorf("unexpected legacy fields %d/%d/%d", exp.Impact, exp.Confidence, exp.Ease)
	}
	if v, _ := exp.DimensionValue(DimensionImpact); v != 9 {
		t.Errorf("reserved impact score should follow legacy field, got %d", v)
	}

	if err := exp.SetLegacyScores(11, 7, 4); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for 11, got %v", err)
	}
	if exp.Impact != 9 {
		t.Errorf("rejected write mutated impact to %d", exp.Impact)
	}
}

func TestSeedDimensionScores(t *testing.T) {
	exp := NewExperiment("e1", "b1", "Referral loop", "me", time.Now())
	exp.Impact = 8
	dims := []DimensionDefinition{
		{ID: DimensionImpact, Name: "Impact", Min: 1, Max: 10},
		{ID: "reach", Name: "Reach", Min: 0, Max: 100},
	}
	exp.DimensionScores = []DimensionScore{{DimensionID: "reach", Value: 70}}

	SeedDimensionScores(exp, dims)

	want := []DimensionScore{
		{DimensionID: "reach", Value: 70},
		{DimensionID: DimensionImpact, Value: 8},
	}
	if diff := cmp.Diff(want, exp.DimensionScores); diff != "" {
		t.Errorf("seeded scores (-want +got):\n%s", diff)
	}
}

func TestRankByScore(t *testing.T) {
	now := time.Now()
	low := &Experiment{ID: "low", Impact: 2, Confidence: 2, Ease: 2, CreatedAt: now}
	highOld := &Experiment{ID: "high-old", Impact: 9, Confidence: 9, Ease: 9, CreatedAt: now.Add(-time.Hour)}
	highNew := &Experiment{ID: "high-new", Impact: 9, Confidence: 9, Ease: 9, CreatedAt: now}

	exps := []*Experiment{low, highOld, highNew}
	RankByScore(exps, nil)

	var got []string
	for _, e := range exps {
		got = append(got, e.ID)
	}
	want := []string{"high-new", "high-old", "low"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rank order (-want +got):\n%s", diff)
	}
}
