// Package memory provides the in-process store used in guest mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/ports"
)

// Store keeps boards and experiments in maps. Every read and write copies, so
// callers never share state with the store.
type Store struct {
	mu          sync.RWMutex
	boards      map[string]*domain.Board
	experiments map[string]*domain.Experiment
}

func NewStore() *Store {
	return &Store{
		boards:      make(map[string]*domain.Board),
		experiments: make(map[string]*domain.Experiment),
	}
}

func (s *Store) FetchBoards(ctx context.Context) ([]*domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Board, 0, len(s.boards))
	for _, b := range s.boards {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) FetchExperiments(ctx context.Context) ([]*domain.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Experiment, 0, len(s.experiments))
	for _, e := range s.experiments {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "board", ID: id}
	}
	return b.Clone(), nil
}

func (s *Store) GetExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.experiments[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "experiment", ID: id}
	}
	return e.Clone(), nil
}

func (s *Store) UpsertBoard(ctx context.Context, b *domain.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.boards[b.ID]; ok && b.Version <= cur.Version {
		return ports.ErrConflict
	}
	s.boards[b.ID] = b.Clone()
	return nil
}

func (s *Store) UpsertExperiment(ctx context.Context, e *domain.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.experiments[e.ID]; ok && e.Version <= cur.Version {
		return ports.ErrConflict
	}
	s.experiments[e.ID] = e.Clone()
	return nil
}

// DeleteExperiment removes the experiment. Deleting a missing id is not an error.
func (s *Store) DeleteExperiment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.experiments, id)
	return nil
}
