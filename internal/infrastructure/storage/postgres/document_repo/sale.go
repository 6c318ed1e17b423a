package document_repo

import (
	"context"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/sale"
	"atelier/internal/infrastructure/storage/postgres"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	BaseDocumentRepo[sale.Sale, sale.Line]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[sale.Sale, sale.Line](
			txm, "sale", "sales", "sale_lines", "sale_id",
			func(l *sale.Line, saleID id.ID) { l.SaleID = saleID },
		),
	}
}

var _ sale.Repository = (*SaleRepo)(nil)

// UpdateStatus persists Status and CompletedAt.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *sale.Sale) error {
	return r.updateFields(ctx, s.ID, map[string]any{
		"status":       s.Status,
		"completed_at": s.CompletedAt,
	})
}
