package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/infrastructure/storage/postgres"
)

const suppliersTable = "suppliers"

// PurchaseOrderRepo implements purchase_order.Repository.
type PurchaseOrderRepo struct {
	BaseDocumentRepo[purchase_order.PurchaseOrder, purchase_order.Line]
	supplierCols []string
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[purchase_order.PurchaseOrder, purchase_order.Line](
			txm, "purchase order", "purchase_orders", "purchase_order_lines", "purchase_order_id",
			func(l *purchase_order.Line, poID id.ID) { l.PurchaseOrderID = poID },
		),
		supplierCols: postgres.Columns[purchase_order.Supplier](),
	}
}

var _ purchase_order.Repository = (*PurchaseOrderRepo)(nil)

// CreateSupplier inserts a supplier.
func (r *PurchaseOrderRepo) CreateSupplier(ctx context.Context, supplier *purchase_order.Supplier) error {
	return r.Insert(ctx, suppliersTable, supplier)
}

// GetSupplier returns a supplier.
func (r *PurchaseOrderRepo) GetSupplier(ctx context.Context, supplierID id.ID) (*purchase_order.Supplier, error) {
	q := r.SQ().Select(r.supplierCols...).From(suppliersTable).Where(squirrel.Eq{"id": supplierID})
	var s purchase_order.Supplier
	if err := r.Get(ctx, &s, q, "supplier", supplierID); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateStatus persists Status and ReceivedAt.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	return r.updateFields(ctx, po.ID, map[string]any{
		"status":      po.Status,
		"received_at": po.ReceivedAt,
	})
}
