package turso

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
)

const commentColumns = `id, author_id, author_name, text, timestamp, has_attachment`

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByExperiment returns the experiment's comments in insertion order.
func (r *CommentRepository) ListByExperiment(ctx context.Context, experimentID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE experiment_id = ?
		ORDER BY position
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListAll returns every comment grouped by experiment id.
func (r *CommentRepository) ListAll(ctx context.Context) (map[string][]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT experiment_id, `+commentColumns+` FROM comments
		ORDER BY experiment_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Comment)
	for rows.Next() {
		var (
			experimentID, ts string
			c                domain.Comment
			attachment       int64
		)
		if err := rows.Scan(&experimentID, &c.ID, &c.AuthorID, &c.AuthorName, &c.Text, &ts, &attachment); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.Timestamp = util.ParseTimestamp(ts)
		c.HasAttachment = attachment == 1
		out[experimentID] = append(out[experimentID], c)
	}
	return out, rows.Err()
}

// Replace stores comments as the experiment's full comment list.
func (r *CommentRepository) Replace(ctx context.Context, experimentID string, comments []domain.Comment) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE experiment_id = ?`, experimentID); err != nil {
		return fmt.Errorf("failed to clear comments: %w", err)
	}
	for i, c := range comments {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO comments (id, experiment_id, position, author_id, author_name, text, timestamp, has_attachment)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, experimentID, i, c.AuthorID, c.AuthorName, c.Text, util.FormatTimestamp(c.Timestamp), util.BoolToInt64(c.HasAttachment))
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
	}
	return nil
}

func scanComment(s scanner) (domain.Comment, error) {
	var (
		c          domain.Comment
		ts         string
		attachment int64
	)
	if err := s.Scan(&c.ID, &c.AuthorID, &c.AuthorName, &c.Text, &ts, &attachment); err != nil {
		return c, fmt.Errorf("failed to scan comment: %w", err)
	}
	c.Timestamp = util.ParseTimestamp(ts)
	c.HasAttachment = attachment == 1
	return c, nil
}
