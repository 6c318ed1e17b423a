package document_repo

import (
	"context"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/invoice"
	"atelier/internal/infrastructure/storage/postgres"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	BaseDocumentRepo[invoice.Invoice, invoice.Line]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[invoice.Invoice, invoice.Line](
			txm, "invoice", "invoices", "invoice_lines", "invoice_id",
			func(l *invoice.Line, invoiceID id.ID) { l.InvoiceID = invoiceID },
		),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// UpdateStatus persists Status and IssuedAt.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	return r.updateFields(ctx, inv.ID, map[string]any{
		"status":    inv.Status,
		"issued_at": inv.IssuedAt,
	})
}
