package purchase_order

import (
	"context"

	"atelier/internal/core/id"
)

// Repository persists suppliers and purchase orders.
type Repository interface {
	CreateSupplier(ctx context.Context, supplier *Supplier) error
	GetSupplier(ctx context.Context, supplierID id.ID) (*Supplier, error)

	Create(ctx context.Context, po *PurchaseOrder) error
	SaveLines(ctx context.Context, poID id.ID, lines []Line) error
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)
	GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)
	GetLines(ctx context.Context, poID id.ID) ([]Line, error)

	// UpdateStatus persists Status and ReceivedAt.
	UpdateStatus(ctx context.Context, po *PurchaseOrder) error
}
