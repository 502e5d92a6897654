package ports

import (
	"context"
	"errors"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

// ErrConflict is returned by a store when a write carries a version that is not
// newer than the stored one.
var ErrConflict = errors.New("version conflict")

// Store is the persistence capability the workspace service is built on.
// Reads return copies; callers may mutate them freely.
type Store interface {
	FetchBoards(ctx context.Context) ([]*domain.Board, error)
	FetchExperiments(ctx context.Context) ([]*domain.Experiment, error)
	GetBoard(ctx context.Context, id string) (*domain.Board, error)
	GetExperiment(ctx context.Context, id string) (*domain.Experiment, error)
	UpsertBoard(ctx context.Context, b *domain.Board) error
	UpsertExperiment(ctx context.Context, e *domain.Experiment) error
	DeleteExperiment(ctx context.Context, id string) error
}
