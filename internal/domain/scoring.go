package domain

import (
	"math"
	"slices"
	"sort"
)

// Reserved dimension ids mirrored by the legacy ICE fields.
const (
	DimensionImpact     = "ice_impact"
	DimensionConfidence = "ice_confidence"
	DimensionEase       = "ice_ease"
)

// legacyFields maps each reserved dimension id to the field it is synchronized with.
var legacyFields map[string]func(*Experiment) *int

// legacyDefinitions holds the built-in definitions of the reserved ids.
var legacyDefinitions map[string]DimensionDefinition

func init() {
	legacyFields = map[string]func(*Experiment) *int{
		DimensionImpact:     func(e *Experiment) *int { return &e.Impact },
		DimensionConfidence: func(e *Experiment) *int { return &e.Confidence },
		DimensionEase:       func(e *Experiment) *int { return &e.Ease },
	}
	legacyDefinitions = make(map[string]DimensionDefinition, len(legacyFields))
	for _, d := range DefaultDimensions() {
		legacyDefinitions[d.ID] = d
	}
}

// IsReservedDimension reports whether id is one of the ICE ids.
func IsReservedDimension(id string) bool {
	_, ok := legacyFields[id]
	return ok
}

// CompositeScore returns the priority score of e on board b, rounded to one decimal.
// A nil board scores on legacy ICE.
func CompositeScore(e *Experiment, b *Board) float64 {
	if b.UsesCustomDimensions() && len(e.DimensionScores) > 0 {
		sum := 0
		for _, s := range e.DimensionScores {
			sum += s.Value
		}
		return round1(float64(sum) / float64(len(e.DimensionScores)))
	}
	return LegacyScore(e)
}

// LegacyScore returns the ICE mean, rounded to one decimal.
func LegacyScore(e *Experiment) float64 {
	return round1(float64(e.Impact+e.Confidence+e.Ease) / 3)
}

// SetDimensionValue upserts the score for dimensionID. The value must lie within the
// dimension's bounds. Reserved ids also update the matching legacy field.
func (e *Experiment) SetDimensionValue(dims []DimensionDefinition, dimensionID string, value int) error {
	if e.Locked {
		return ErrLocked
	}
	def, ok := findDimension(dims, dimensionID)
	if !ok {
		return &NotFoundError{Kind: "dimension", ID: dimensionID}
	}
	if !def.Contains(value) {
		return &RangeError{DimensionID: dimensionID, Value: value, Min: def.Min, Max: def.Max}
	}

	e.upsertScore(dimensionID, value)
	if field, ok := legacyFields[dimensionID]; ok {
		*field(e) = value
	}
	e.touch()
	return nil
}

// DimensionValue returns the recorded score for a dimension.
func (e *Experiment) DimensionValue(dimensionID string) (int, bool) {
	for _, s := range e.DimensionScores {
		if s.DimensionID == dimensionID {
			return s.Value, true
		}
	}
	if field, ok := legacyFields[dimensionID]; ok {
		return *field(e), true
	}
	return 0, false
}

// SetLegacyScores sets the three ICE fields at once. Reserved dimension scores that are
// already recorded follow the new values.
func (e *Experiment) SetLegacyScores(impact, confidence, ease int) error {
	if e.Locked {
		return ErrLocked
	}
	values := map[string]int{DimensionImpact: impact, DimensionConfidence: confidence, DimensionEase: ease}
	for id, v := range values {
		if def := legacyDefinitions[id]; !def.Contains(v) {
			return &RangeError{DimensionID: id, Value: v, Min: def.Min, Max: def.Max}
		}
	}
	for id, v := range values {
		*legacyFields[id](e) = v
		if _, ok := e.scoreIndex(id); ok {
			e.upsertScore(id, v)
		}
	}
	e.touch()
	return nil
}

// SeedDimensionScores records a starting score for every dimension that has none.
// Reserved ids take the legacy value, others start at the midpoint.
func SeedDimensionScores(e *Experiment, dims []DimensionDefinition) {
	for _, d := range dims {
		if _, ok := e.scoreIndex(d.ID); ok {
			continue
		}
		v := d.Midpoint()
		if field, ok := legacyFields[d.ID]; ok {
			v = *field(e)
		}
		e.DimensionScores = append(e.DimensionScores, DimensionScore{DimensionID: d.ID, Value: v})
	}
}

// RankByScore sorts exps by composite score, highest first. Ties go to the newest.
func RankByScore(exps []*Experiment, b *Board) {
	scores := make(map[*Experiment]float64, len(exps))
	for _, e := range exps {
		scores[e] = CompositeScore(e, b)
	}
	sort.SliceStable(exps, func(i, j int) bool {
		si, sj := scores[exps[i]], scores[exps[j]]
		if si != sj {
			return si > sj
		}
		return exps[i].CreatedAt.After(exps[j].CreatedAt)
	})
}

func (e *Experiment) upsertScore(dimensionID string, value int) {
	if i, ok := e.scoreIndex(dimensionID); ok {
		e.DimensionScores[i].Value = value
		return
	}
	e.DimensionScores = append(e.DimensionScores, DimensionScore{DimensionID: dimensionID, Value: value})
}

func (e *Experiment) scoreIndex(dimensionID string) (int, bool) {
	i := slices.IndexFunc(e.DimensionScores, func(s DimensionScore) bool { return s.DimensionID == dimensionID })
	return i, i >= 0
}

func findDimension(dims []DimensionDefinition, id string) (DimensionDefinition, bool) {
	for _, d := range dims {
		if d.ID == id {
			return d, true
		}
	}
	def, ok := legacyDefinitions[id]
	return def, ok
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
