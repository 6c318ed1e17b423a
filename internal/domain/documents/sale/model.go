// Package sale provides point-of-sale tickets. Completing a sale decrements
// stock in the same transaction and queues its journal entry.
package sale

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/payments"
)

// Status of a sale.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"
)

// Sale is a POS ticket.
type Sale struct {
	ID             id.ID                  `db:"id" json:"id"`
	Number         string                 `db:"sale_number" json:"number"`
	StoreID        id.ID                  `db:"store_id" json:"store_id"`
	WarehouseID    *id.ID                 `db:"warehouse_id" json:"warehouse_id,omitempty"`
	ClientID       *id.ID                 `db:"client_id" json:"client_id,omitempty"`
	Subtotal       types.Money            `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money            `db:"tax_amount" json:"tax_amount"`
	Total          types.Money            `db:"total" json:"total"`
	AmountPaid     types.Money            `db:"amount_paid" json:"amount_paid"`
	PaymentStatus  payments.PaymentStatus `db:"payment_status" json:"payment_status"`
	Status         Status                 `db:"status" json:"status"`
	SaleDate       time.Time              `db:"sale_date" json:"sale_date"`
	CompletedAt    *time.Time             `db:"completed_at" json:"completed_at,omitempty"`
	JournalEntryID *id.ID                 `db:"journal_entry_id" json:"journal_entry_id,omitempty"`
	Notes          string                 `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one sold variant.
type Line struct {
	ID                 id.ID       `db:"id" json:"id"`
	SaleID             id.ID       `db:"sale_id" json:"sale_id"`
	VariantID          id.ID       `db:"variant_id" json:"variant_id"`
	Description        string      `db:"description" json:"description"`
	Quantity           int         `db:"quantity" json:"quantity"`
	UnitPrice          types.Money `db:"unit_price" json:"unit_price"`
	DiscountPercentage types.Money `db:"discount_percentage" json:"discount_percentage"`
	LineTotal          types.Money `db:"line_total" json:"line_total"`
	SortOrder          int         `db:"sort_order" json:"sort_order"`
}

// CreateInput opens a sale.
type CreateInput struct {
	StoreID     id.ID `validate:"required"`
	WarehouseID *id.ID
	ClientID    *id.ID
	SaleDate    time.Time
	Notes       string      `validate:"max=2000"`
	Lines       []LineInput `validate:"required,min=1,max=200,dive"`
}

// LineInput is one line of CreateInput.
type LineInput struct {
	VariantID          id.ID  `validate:"required"`
	Description        string `validate:"max=500"`
	Quantity           int    `validate:"gt=0"`
	UnitPrice          types.Money
	DiscountPercentage types.Money
}

// CompletedPayload is the outbox payload of events.SaleCompleted.
type CompletedPayload struct {
	SaleID id.ID       `json:"sale_id"`
	Number string      `json:"number"`
	Total  types.Money `json:"total"`
}
