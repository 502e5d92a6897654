package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Legacy ICE bounds. Every board without custom scoring rates on this scale.
const (
	LegacyMin = 1
	LegacyMax = 10
)

// Board is a workspace scoping a set of experiments and their configuration.
type Board struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	Config      *BoardConfig `json:"config,omitempty"`
	Version     int64        `json:"version"`
}

// BoardConfig holds the tracked metrics and scoring dimensions of a board.
type BoardConfig struct {
	Metrics             []MetricDefinition    `json:"metrics" yaml:"metrics"`
	Dimensions          []DimensionDefinition `json:"dimensions" yaml:"dimensions"`
	UseCustomDimensions bool                  `json:"use_custom_dimensions" yaml:"use_custom_dimensions"`
}

// MetricFormat selects how metric values are rendered.
type MetricFormat string

const (
	FormatNumber   MetricFormat = "number"
	FormatPercent  MetricFormat = "percent"
	FormatCurrency MetricFormat = "currency"
	FormatTime     MetricFormat = "time"
)

// MetricDefinition is a tracked KPI type scoped to a board.
type MetricDefinition struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Format      MetricFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Suffix      string       `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// DimensionDefinition is a ranged scoring axis scoped to a board.
type DimensionDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Min         int    `json:"min" yaml:"min"`
	Max         int    `json:"max" yaml:"max"`
}

// Midpoint returns the value new scores start at.
func (d DimensionDefinition) Midpoint() int {
	return d.Min + (d.Max-d.Min)/2
}

// Contains reports whether v lies within [Min, Max].
func (d DimensionDefinition) Contains(v int) bool {
	return v >= d.Min && v <= d.Max
}

// DefaultDimensions returns the three ICE dimensions.
func DefaultDimensions() []DimensionDefinition {
	return []DimensionDefinition{
		{ID: DimensionImpact, Name: "Impact", Description: "How much will this move the needle?", Min: LegacyMin, Max: LegacyMax},
		{ID: DimensionConfidence, Name: "Confidence", Description: "How sure are we?", Min: LegacyMin, Max: LegacyMax},
		{ID: DimensionEase, Name: "Ease", Description: "How easy is it?", Min: LegacyMin, Max: LegacyMax},
	}
}

// DefaultBoardConfig returns a config with no metrics and ICE scoring.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Metrics:    []MetricDefinition{},
		Dimensions: DefaultDimensions(),
	}
}

// ScoringDimensions returns the dimensions experiments on this board are scored on.
// Stored custom dimensions are ignored unless custom scoring is enabled.
func (b *Board) ScoringDimensions() []DimensionDefinition {
	if b == nil || b.Config == nil || !b.Config.UseCustomDimensions {
		return DefaultDimensions()
	}
	return b.Config.Dimensions
}

// UsesCustomDimensions reports whether the board scores on its own dimensions.
func (b *Board) UsesCustomDimensions() bool {
	return b != nil && b.Config != nil && b.Config.UseCustomDimensions
}

// Metrics returns the board's metric definitions, or nil when unconfigured.
func (b *Board) Metrics() []MetricDefinition {
	if b == nil || b.Config == nil {
		return nil
	}
	return b.Config.Metrics
}

// Metric looks up a metric definition by id.
func (b *Board) Metric(id string) (MetricDefinition, bool) {
	for _, m := range b.Metrics() {
		if m.ID == id {
			return m, true
		}
	}
	return MetricDefinition{}, false
}

// Validate checks the board's own fields and its config.
func (b *Board) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("name", "board name is required")
	}
	if b.Config != nil {
		return b.Config.Validate()
	}
	return nil
}

// Validate checks identifier uniqueness and dimension bounds.
func (c *BoardConfig) Validate() error {
	seen := make(map[string]bool, len(c.Metrics))
	for _, m := range c.Metrics {
		if m.ID == "" {
			return invalid("metrics", "metric id is required")
		}
		if seen[m.ID] {
			return invalid("metrics", fmt.Sprintf("duplicate metric id %q", m.ID))
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.Name) == "" {
			return invalid("metrics", fmt.Sprintf("metric %q has no name", m.ID))
		}
		if !m.Format.Valid() {
			return invalid("metrics", fmt.Sprintf("metric %q has unknown format %q", m.ID, m.Format))
		}
	}

	if c.UseCustomDimensions && len(c.Dimensions) == 0 {
		return invalid("dimensions", "custom scoring needs at least one dimension")
	}
	seen = make(map[string]bool, len(c.Dimensions))
	for _, d := range c.Dimensions {
		if d.ID == "" {
			return invalid("dimensions", "dimension id is required")
		}
		if seen[d.ID] {
			return invalid("dimensions", fmt.Sprintf("duplicate dimension id %q", d.ID))
		}
		seen[d.ID] = true
		if strings.TrimSpace(d.Name) == "" {
			return invalid("dimensions", fmt.Sprintf("dimension %q has no name", d.ID))
		}
		if d.Max <= d.Min {
			return invalid("dimensions", fmt.Sprintf("dimension %q max must be greater than min", d.ID))
		}
		if IsReservedDimension(d.ID) && (d.Min != LegacyMin || d.Max != LegacyMax) {
			return invalid("dimensions", fmt.Sprintf("dimension %q is tied to an ICE score and must span %d-%d", d.ID, LegacyMin, LegacyMax))
		}
	}
	return nil
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := *b
	if b.Config != nil {
		cfg := b.Config.Clone()
		out.Config = &cfg
	}
	return &out
}

// Clone returns a deep copy of the config.
func (c BoardConfig) Clone() BoardConfig {
	out := BoardConfig{UseCustomDimensions: c.UseCustomDimensions}
	out.Metrics = append([]MetricDefinition{}, c.Metrics...)
	out.Dimensions = append([]DimensionDefinition{}, c.Dimensions...)
	return out
}

// Valid reports whether the format is known. The empty format means number.
func (f MetricFormat) Valid() bool {
	switch f {
	case "", FormatNumber, FormatPercent, FormatCurrency, FormatTime:
		return true
	}
	return false
}

// Render formats v for display.
func (m MetricDefinition) Render(v float64) string {
	var s string
	switch m.Format {
	case FormatPercent:
		s = trimFloat(v) + "%"
	case FormatCurrency:
		s = formatCurrency(v)
	case FormatTime:
		s = (time.Duration(math.Round(v)) * time.Second).String()
	default:
		s = trimFloat(v)
	}
	return s + m.Suffix
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func formatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := cents / 100
	digits := fmt.Sprintf("%d", whole)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}
