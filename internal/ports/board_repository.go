package ports

import (
	"context"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

type BoardRepository interface {
	Upsert(ctx context.Context, board *domain.Board) error
	GetByID(ctx context.Context, id string) (*domain.Board, error)
	List(ctx context.Context) ([]*domain.Board, error)
}
