package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
)

const experimentColumns = `id, board_id, title, description, status,
	ice_impact, ice_confidence, ice_ease, dimension_scores, metric_values,
	market, type, tags, created_at, archived, locked, result, owner, version`

// ExperimentRepository stores experiment rows. Comments live in CommentRepository.
type ExperimentRepository struct {
	db DBTX
}

func NewExperimentRepository(db DBTX) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// Upsert inserts the experiment or replaces it when e.Version is newer than the stored row.
// A stale version returns ports.ErrConflict.
func (r *ExperimentRepository) Upsert(ctx context.Context, e *domain.Experiment) error {
	scores, err := marshalJSON(nonNil(e.DimensionScores))
	if err != nil {
		return err
	}
	metrics, err := marshalJSON(nonNil(e.MetricValues))
	if err != nil {
		return err
	}
	tags, err := marshalJSON(nonNil(e.Tags))
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO experiments (`+experimentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			board_id = excluded.board_id,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			ice_impact = excluded.ice_impact,
			ice_confidence = excluded.ice_confidence,
			ice_ease = excluded.ice_ease,
			dimension_scores = excluded.dimension_scores,
			metric_values = excluded.metric_values,
			market = excluded.market,
			type = excluded.type,
			tags = excluded.tags,
			archived = excluded.archived,
			locked = excluded.locked,
			result = excluded.result,
			owner = excluded.owner,
			version = excluded.version
		WHERE excluded.version > experiments.version
	`,
		e.ID, e.BoardID, e.Title, e.Description, string(e.Status),
		e.Impact, e.Confidence, e.Ease, scores, metrics,
		e.Market, e.Type, tags, util.FormatTimestamp(e.CreatedAt),
		util.BoolToInt64(e.Archived), util.BoolToInt64(e.Locked),
		util.NullString(string(e.Result)), e.Owner, e.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert experiment: %w", err)
	}
	return conflictIfUnchanged(res)
}

// GetByID returns the experiment without comments.
func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id)
	e, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "experiment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return e, nil
}

// List returns every experiment, newest first, without comments.
func (r *ExperimentRepository) List(ctx context.Context) ([]*domain.Experiment, error) {
	return r.query(ctx, `SELECT `+experimentColumns+` FROM experiments ORDER BY created_at DESC, id`)
}

// ListByBoard returns the board's experiments, newest first, without comments.
func (r *ExperimentRepository) ListByBoard(ctx context.Context, boardID string) ([]*domain.Experiment, error) {
	return r.query(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE board_id = ? ORDER BY created_at DESC, id`, boardID)
}

// Delete removes the experiment. Its comments cascade.
func (r *ExperimentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "experiment", ID: id}
	}
	return nil
}

func (r *ExperimentRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var exps []*domain.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		exps = append(exps, e)
	}
	return exps, rows.Err()
}

func scanExperiment(s scanner) (*domain.Experiment, error) {
	var (
		e                     domain.Experiment
		status                string
		scores, metrics, tags string
		createdAt             string
		archived, locked      int64
		result                sql.NullString
	)
	err := s.Scan(
		&e.ID, &e.BoardID, &e.Title, &e.Description, &status,
		&e.Impact, &e.Confidence, &e.Ease, &scores, &metrics,
		&e.Market, &e.Type, &tags, &createdAt, &archived, &locked,
		&result, &e.Owner, &e.Version,
	)
	if err != nil {
		return nil, err
	}

	e.Status = domain.Status(status)
	e.CreatedAt = util.ParseTimestamp(createdAt)
	e.Archived = archived == 1
	e.Locked = locked == 1
	e.Result = domain.Result(util.NullStringValue(result))
	if err := unmarshalJSON(scores, &e.DimensionScores); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metrics, &e.MetricValues); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &e.Tags); err != nil {
		return nil, err
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if len(e.DimensionScores) == 0 {
		e.DimensionScores = nil
	}
	if len(e.MetricValues) == 0 {
		e.MetricValues = nil
	}
	e.Comments = []domain.Comment{}
	return &e, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
