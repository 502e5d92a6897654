package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

// Store implements ports.Store over a libsql database.
type Store struct {
	db    *sql.DB
	repos *Repositories
	sync  func() error
}

// NewStore wraps an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db.DB, repos: NewRepositories(db.DB), sync: db.Sync}
}

// Sync pulls remote changes when the database is an embedded replica.
func (s *Store) Sync() error {
	if s.sync == nil {
		return nil
	}
	return s.sync()
}

func (s *Store) FetchBoards(ctx context.Context) ([]*domain.Board, error) {
	return s.repos.Boards.List(ctx)
}

func (s *Store) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	return s.repos.Boards.GetByID(ctx, id)
}

func (s *Store) UpsertBoard(ctx context.Context, b *domain.Board) error {
	return s.repos.Boards.Upsert(ctx, b)
}

func (s *Store) FetchExperiments(ctx context.Context) ([]*domain.Experiment, error) {
	exps, err := s.repos.Experiments.List(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.repos.Comments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range exps {
		if cs, ok := comments[e.ID]; ok {
			e.Comments = cs
		}
	}
	return exps, nil
}

func (s *Store) GetExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	e, err := s.repos.Experiments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Comments, err = s.repos.Comments.ListByExperiment(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

// UpsertExperiment writes the experiment row and its comments in one transaction.
func (s *Store) UpsertExperiment(ctx context.Context, e *domain.Experiment) error {
	return s.inTx(ctx, func(repos *Repositories) error {
		if err := repos.Experiments.Upsert(ctx, e); err != nil {
			return err
		}
		return repos.Comments.Replace(ctx, e.ID, e.Comments)
	})
}

// DeleteExperiment removes the experiment and its comments. Deleting a missing
// experiment is not an error.
func (s *Store) DeleteExperiment(ctx context.Context, id string) error {
	return s.inTx(ctx, func(repos *Repositories) error {
		if err := repos.Comments.Replace(ctx, id, nil); err != nil {
			return err
		}
		err := repos.Experiments.Delete(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(NewRepositories(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
