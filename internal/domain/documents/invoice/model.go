// Package invoice provides customer invoices with VAT and optional IRPF
// withholding. Issuing an invoice queues its journal entry.
package invoice

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Status of an invoice.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
)

// Invoice totals satisfy Total = Subtotal + TaxAmount - IRPFAmount.
type Invoice struct {
	ID             id.ID       `db:"id" json:"id"`
	Number         string      `db:"invoice_number" json:"number"`
	OrderID        *id.ID      `db:"order_id" json:"order_id,omitempty"`
	SaleID         *id.ID      `db:"sale_id" json:"sale_id,omitempty"`
	ClientID       *id.ID      `db:"client_id" json:"client_id,omitempty"`
	InvoiceDate    time.Time   `db:"invoice_date" json:"invoice_date"`
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money `db:"tax_amount" json:"tax_amount"`
	IRPFPercentage types.Money `db:"irpf_percentage" json:"irpf_percentage"`
	IRPFAmount     types.Money `db:"irpf_amount" json:"irpf_amount"`
	Total          types.Money `db:"total" json:"total"`
	Status         Status      `db:"status" json:"status"`
	IssuedAt       *time.Time  `db:"issued_at" json:"issued_at,omitempty"`
	JournalEntryID *id.ID      `db:"journal_entry_id" json:"journal_entry_id,omitempty"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one invoiced concept.
type Line struct {
	ID          id.ID       `db:"id" json:"id"`
	InvoiceID   id.ID       `db:"invoice_id" json:"invoice_id"`
	Description string      `db:"description" json:"description"`
	Quantity    int         `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unit_price"`
	LineTotal   types.Money `db:"line_total" json:"line_total"`
	SortOrder   int         `db:"sort_order" json:"sort_order"`
}

// CreateInput drafts an invoice. At most one of OrderID and SaleID is set.
type CreateInput struct {
	OrderID        *id.ID
	SaleID         *id.ID
	ClientID       *id.ID
	InvoiceDate    time.Time
	IRPFPercentage types.Money
	Notes          string      `validate:"max=2000"`
	Lines          []LineInput `validate:"required,min=1,max=200,dive"`
}

// LineInput is one line of CreateInput.
type LineInput struct {
	Description string `validate:"required,max=500"`
	Quantity    int    `validate:"gt=0"`
	UnitPrice   types.Money
}

// IssuedPayload is the outbox payload of events.InvoiceIssued.
type IssuedPayload struct {
	InvoiceID id.ID       `json:"invoice_id"`
	Number    string      `json:"number"`
	Total     types.Money `json:"total"`
}
