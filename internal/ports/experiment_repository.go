package ports

import (
	"context"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

type ExperimentRepository interface {
	Upsert(ctx context.Context, experiment *domain.Experiment) error
	GetByID(ctx context.Context, id string) (*domain.Experiment, error)
	List(ctx context.Context) ([]*domain.Experiment, error)
	ListByBoard(ctx context.Context, boardID string) ([]*domain.Experiment, error)
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	ListByExperiment(ctx context.Context, experimentID string) ([]domain.Comment, error)
	Replace(ctx context.Context, experimentID string, comments []domain.Comment) error
}
