package invoice

import (
	"context"

	"atelier/internal/core/id"
)

// Repository persists invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	SaveLines(ctx context.Context, invoiceID id.ID, lines []Line) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetLines(ctx context.Context, invoiceID id.ID) ([]Line, error)

	// UpdateStatus persists Status and IssuedAt.
	UpdateStatus(ctx context.Context, inv *Invoice) error
}
