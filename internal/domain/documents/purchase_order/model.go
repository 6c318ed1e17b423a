// Package purchase_order provides suppliers and the purchase orders sent to
// them. Receiving an order queues its journal entry.
package purchase_order

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Status of a purchase order.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusReceived, StatusCancelled},
	StatusSent:  {StatusReceived, StatusCancelled},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Supplier is a vendor. Codes are PROV-NNNN without a year.
type Supplier struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"supplier_code" json:"code"`
	Name      string    `db:"name" json:"name"`
	TaxID     string    `db:"tax_id" json:"tax_id,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID             id.ID       `db:"id" json:"id"`
	Number         string      `db:"po_number" json:"number"`
	SupplierID     id.ID       `db:"supplier_id" json:"supplier_id"`
	OrderDate      time.Time   `db:"order_date" json:"order_date"`
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money `db:"tax_amount" json:"tax_amount"`
	Total          types.Money `db:"total" json:"total"`
	Status         Status      `db:"status" json:"status"`
	ReceivedAt     *time.Time  `db:"received_at" json:"received_at,omitempty"`
	JournalEntryID *id.ID      `db:"journal_entry_id" json:"journal_entry_id,omitempty"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered item.
type Line struct {
	ID              id.ID       `db:"id" json:"id"`
	PurchaseOrderID id.ID       `db:"purchase_order_id" json:"purchase_order_id"`
	VariantID       *id.ID      `db:"variant_id" json:"variant_id,omitempty"`
	Description     string      `db:"description" json:"description"`
	Quantity        int         `db:"quantity" json:"quantity"`
	UnitCost        types.Money `db:"unit_cost" json:"unit_cost"`
	LineTotal       types.Money `db:"line_total" json:"line_total"`
	SortOrder       int         `db:"sort_order" json:"sort_order"`
}

// SupplierInput creates a supplier.
type SupplierInput struct {
	Name  string `validate:"required,max=200"`
	TaxID string `validate:"max=20"`
	Email string `validate:"omitempty,email"`
}

// CreateInput creates a purchase order.
type CreateInput struct {
	SupplierID id.ID `validate:"required"`
	OrderDate  time.Time
	Notes      string      `validate:"max=2000"`
	Lines      []LineInput `validate:"required,min=1,max=200,dive"`
}

// LineInput is one line of CreateInput.
type LineInput struct {
	VariantID   *id.ID
	Description string `validate:"required,max=500"`
	Quantity    int    `validate:"gt=0"`
	UnitCost    types.Money
}

// ReceivedPayload is the outbox payload of events.PurchaseOrderReceived.
type ReceivedPayload struct {
	PurchaseOrderID id.ID       `json:"purchase_order_id"`
	Number          string      `json:"number"`
	SupplierID      id.ID       `json:"supplier_id"`
	Total           types.Money `json:"total"`
}
