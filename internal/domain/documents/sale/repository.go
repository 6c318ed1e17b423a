package sale

import (
	"context"

	"atelier/internal/core/id"
)

// Repository persists sales.
type Repository interface {
	Create(ctx context.Context, sale *Sale) error
	SaveLines(ctx context.Context, saleID id.ID, lines []Line) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)
	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)

	// UpdateStatus persists Status and CompletedAt.
	UpdateStatus(ctx context.Context, sale *Sale) error
}
