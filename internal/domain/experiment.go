package domain

import (
	"slices"
	"strings"
	"time"
)

// Result is the outcome of a finished experiment. The zero value means no result yet.
type Result string

const (
	ResultNone         Result = ""
	ResultWon          Result = "won"
	ResultLost         Result = "lost"
	ResultInconclusive Result = "inconclusive"
)

// Valid reports whether r is a known result, including none.
func (r Result) Valid() bool {
	switch r {
	case ResultNone, ResultWon, ResultLost, ResultInconclusive:
		return true
	}
	return false
}

// Known markets and experiment types, in display order.
var (
	Markets = []string{"US", "UK", "CA", "AU", "NZ", "SG"}
	Types   = []string{"Acquisition", "Retention", "Monetization", "Product", "Referral"}
)

// Experiment is the core record tracked on a board.
type Experiment struct {
	ID          string `json:"id"`
	BoardID     string `json:"board_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`

	// Legacy ICE fields, kept in sync with the reserved dimension ids.
	Impact     int `json:"ice_impact"`
	Confidence int `json:"ice_confidence"`
	Ease       int `json:"ice_ease"`

	DimensionScores []DimensionScore `json:"dimension_scores,omitempty"`
	MetricValues    []MetricValue    `json:"metric_values,omitempty"`

	Market    string    `json:"market"`
	Type      string    `json:"type"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	Archived  bool      `json:"archived"`
	Locked    bool      `json:"locked"`
	Result    Result    `json:"result,omitempty"`
	Owner     string    `json:"owner"`
	Comments  []Comment `json:"comments"`
	Version   int64     `json:"version"`
}

// DimensionScore is a recorded value on one scoring dimension.
type DimensionScore struct {
	DimensionID string `json:"dimension_id"`
	Value       int    `json:"value"`
}

// MetricValue holds the tracked numbers of one metric for one experiment.
type MetricValue struct {
	MetricID string   `json:"metric_id"`
	Baseline *float64 `json:"baseline"`
	Target   *float64 `json:"target"`
	Actual   *float64 `json:"actual"`
}

// Comment is an append-only discussion entry on an experiment.
type Comment struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
	HasAttachment bool      `json:"has_attachment,omitempty"`
}

// NewExperiment returns an experiment in status idea with mid-range ICE scores.
func NewExperiment(id, boardID, title, owner string, createdAt time.Time) *Experiment {
	mid := DimensionDefinition{Min: LegacyMin, Max: LegacyMax}.Midpoint()
	return &Experiment{
		ID:         id,
		BoardID:    boardID,
		Title:      title,
		Status:     StatusIdea,
		Impact:     mid,
		Confidence: mid,
		Ease:       mid,
		Market:     Markets[0],
		Type:       Types[0],
		Tags:       []string{},
		CreatedAt:  createdAt,
		Owner:      owner,
		Comments:   []Comment{},
		Version:    1,
	}
}

// Validate checks the fields required on save.
func (e *Experiment) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "title is required")
	}
	if e.BoardID == "" {
		return invalid("board_id", "board is required")
	}
	if !e.Status.Valid() {
		return invalid("status", "unknown status "+string(e.Status))
	}
	if !e.Result.Valid() {
		return invalid("result", "unknown result "+string(e.Result))
	}
	for _, v := range []int{e.Impact, e.Confidence, e.Ease} {
		if v < LegacyMin || v > LegacyMax {
			return invalid("ice", "ICE scores must be between 1 and 10")
		}
	}
	seen := make(map[string]bool, len(e.Tags))
	for _, t := range e.Tags {
		if seen[t] {
			return invalid("tags", "duplicate tag "+t)
		}
		seen[t] = true
	}
	return nil
}

// Edit holds the free-form fields of an experiment. Nil fields are left unchanged.
type Edit struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Market      *string `json:"market,omitempty"`
	Type        *string `json:"type,omitempty"`
	Owner       *string `json:"owner,omitempty"`
}

// Apply applies the edit. A blank title is rejected.
func (e *Experiment) Apply(edit Edit) error {
	if e.Locked {
		return ErrLocked
	}
	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		return invalid("title", "title is required")
	}
	if edit.Title != nil {
		e.Title = strings.TrimSpace(*edit.Title)
	}
	if edit.Description != nil {
		e.Description = *edit.Description
	}
	if edit.Market != nil {
		e.Market = *edit.Market
	}
	if edit.Type != nil {
		e.Type = *edit.Type
	}
	if edit.Owner != nil {
		e.Owner = *edit.Owner
	}
	e.touch()
	return nil
}

// AddTag appends a trimmed tag. Duplicates and blanks are rejected.
func (e *Experiment) AddTag(tag string) error {
	if e.Locked {
		return ErrLocked
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return invalid("tags", "tag is empty")
	}
	if slices.Contains(e.Tags, tag) {
		return invalid("tags", "duplicate tag "+tag)
	}
	e.Tags = append(e.Tags, tag)
	e.touch()
	return nil
}

// RemoveTag drops a tag. Removing a tag that is not present is a no-op.
func (e *Experiment) RemoveTag(tag string) error {
	if e.Locked {
		return ErrLocked
	}
	i := slices.Index(e.Tags, tag)
	if i < 0 {
		return nil
	}
	e.Tags = slices.Delete(e.Tags, i, i+1)
	e.touch()
	return nil
}

// SetResult records the outcome. Only complete and learnings experiments may carry one.
func (e *Experiment) SetResult(r Result) error {
	if e.Locked {
		return ErrLocked
	}
	if !r.Valid() {
		return invalid("result", "unknown result "+string(r))
	}
	if r != ResultNone && !e.Status.Finished() {
		return invalid("result", "result can only be set on complete or learnings")
	}
	e.Result = r
	e.touch()
	return nil
}

// SetMetricValue upserts the values for a metric defined in defs.
func (e *Experiment) SetMetricValue(defs []MetricDefinition, metricID string, baseline, target, actual *float64) error {
	if e.Locked {
		return ErrLocked
	}
	if !slices.ContainsFunc(defs, func(d MetricDefinition) bool { return d.ID == metricID }) {
		return &NotFoundError{Kind: "metric", ID: metricID}
	}
	mv := MetricValue{MetricID: metricID, Baseline: baseline, Target: target, Actual: actual}
	if i := slices.IndexFunc(e.MetricValues, func(m MetricValue) bool { return m.MetricID == metricID }); i >= 0 {
		e.MetricValues[i] = mv
	} else {
		e.MetricValues = append(e.MetricValues, mv)
	}
	e.touch()
	return nil
}

// MetricValue returns the values recorded for a metric.
func (e *Experiment) MetricValue(metricID string) (MetricValue, bool) {
	for _, m := range e.MetricValues {
		if m.MetricID == metricID {
			return m, true
		}
	}
	return MetricValue{}, false
}

// AddComment appends a comment. Locked experiments still accept comments.
func (e *Experiment) AddComment(c Comment) error {
	if strings.TrimSpace(c.Text) == "" {
		return invalid("text", "comment is empty")
	}
	e.Comments = append(e.Comments, c)
	e.touch()
	return nil
}

// Clone returns a deep copy of the experiment.
func (e *Experiment) Clone() *Experiment {
	if e == nil {
		return nil
	}
	out := *e
	out.DimensionScores = slices.Clone(e.DimensionScores)
	out.Tags = slices.Clone(e.Tags)
	out.Comments = slices.Clone(e.Comments)
	if e.MetricValues != nil {
		out.MetricValues = make([]MetricValue, len(e.MetricValues))
		for i, m := range e.MetricValues {
			out.MetricValues[i] = MetricValue{
				MetricID: m.MetricID,
				Baseline: cloneFloat(m.Baseline),
				Target:   cloneFloat(m.Target),
				Actual:   cloneFloat(m.Actual),
			}
		}
	}
	return &out
}

func (e *Experiment) touch() {
	e.Version++
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
