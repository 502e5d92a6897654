package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/ports"
	"github.com/emiliopalmerini/growthops/internal/util"
)

const boardColumns = `id, name, description, config, created_at, version`

type BoardRepository struct {
	db DBTX
}

func NewBoardRepository(db DBTX) *BoardRepository {
	return &BoardRepository{db: db}
}

// Upsert inserts the board or replaces it when b.Version is newer than the stored row.
// A stale version returns ports.ErrConflict.
func (r *BoardRepository) Upsert(ctx context.Context, b *domain.Board) error {
	var config sql.NullString
	if b.Config != nil {
		s, err := marshalJSON(b.Config)
		if err != nil {
			return err
		}
		config = util.NullString(s)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO boards (`+boardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			config = excluded.config,
			version = excluded.version
		WHERE excluded.version > boards.version
	`, b.ID, b.Name, b.Description, config, util.FormatTimestamp(b.CreatedAt), b.Version)
	if err != nil {
		return fmt.Errorf("failed to upsert board: %w", err)
	}
	return conflictIfUnchanged(res)
}

func (r *BoardRepository) GetByID(ctx context.Context, id string) (*domain.Board, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id)
	b, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "board", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return b, nil
}

func (r *BoardRepository) List(ctx context.Context) ([]*domain.Board, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+boardColumns+` FROM boards ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []*domain.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func scanBoard(s scanner) (*domain.Board, error) {
	var (
		b         domain.Board
		config    sql.NullString
		createdAt string
	)
	if err := s.Scan(&b.ID, &b.Name, &b.Description, &config, &createdAt, &b.Version); err != nil {
		return nil, err
	}
	b.CreatedAt = util.ParseTimestamp(createdAt)
	if config.Valid {
		var cfg domain.BoardConfig
		if err := unmarshalJSON(config.String, &cfg); err != nil {
			return nil, err
		}
		b.Config = &cfg
	}
	return &b, nil
}

func conflictIfUnchanged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ports.ErrConflict
	}
	return nil
}
