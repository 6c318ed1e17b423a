package orders

import (
	"context"

	"atelier/internal/core/id"
)

// Repository persists orders, their lines, history and fittings.
// Every method joins the transaction carried by ctx, if any.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	SaveLines(ctx context.Context, orderID id.ID, lines []Line) error

	// GetByID returns the order without lines, or NOT_FOUND.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetForUpdate returns the order and locks its row until the
	// transaction ends. NOT_FOUND when absent.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	GetLines(ctx context.Context, orderID id.ID) ([]Line, error)

	// UpdateStatus persists Status and ActualDeliveryDate.
	UpdateStatus(ctx context.Context, order *Order) error
	UpdateLineStatus(ctx context.Context, lineID id.ID, status Status) error
	UpdateAllLineStatuses(ctx context.Context, orderID id.ID, status Status) error

	AddHistory(ctx context.Context, entry *HistoryEntry) error
	ListHistory(ctx context.Context, orderID id.ID) ([]HistoryEntry, error)

	// StoreOrderPrefix returns the store's number prefix or "".
	StoreOrderPrefix(ctx context.Context, storeID id.ID) (string, error)

	MaxFittingNumber(ctx context.Context, orderID id.ID) (int, error)
	CreateFitting(ctx context.Context, fitting *Fitting) error
	ListFittings(ctx context.Context, orderID id.ID) ([]Fitting, error)
}
