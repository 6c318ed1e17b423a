// Package orders provides the order lifecycle: creation with computed
// totals, status transitions for orders and their lines, and fittings.
package orders

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Kind distinguishes tailoring orders from online shop orders.
type Kind string

const (
	KindTailoring Kind = "tailoring"
	KindOnline    Kind = "online"
)

// Order is a customer order with its computed totals.
type Order struct {
	ID       id.ID  `db:"id"`
	Number   string `db:"order_number"`
	Kind     Kind   `db:"kind"`
	Status   Status `db:"status"`
	StoreID  id.ID  `db:"store_id"`
	ClientID *id.ID `db:"client_id"`

	Subtotal           types.Money `db:"subtotal"`
	DiscountPercentage types.Money `db:"discount_percentage"`
	DiscountAmount     types.Money `db:"discount_amount"`
	TaxAmount          types.Money `db:"tax_amount"`
	Total              types.Money `db:"total"`
	TotalPaid          types.Money `db:"total_paid"`
	TotalPending       types.Money `db:"total_pending"`

	EstimatedDeliveryDate *time.Time `db:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time `db:"actual_delivery_date"`
	JournalEntryID        *id.ID     `db:"journal_entry_id"`
	Notes                 string     `db:"notes"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`

	Lines []Line `db:"-"`
}

// Line is one garment or item of an order. Its status follows the order's
// but may lag behind when lines are advanced individually.
type Line struct {
	ID                 id.ID       `db:"id"`
	OrderID            id.ID       `db:"order_id"`
	Description        string      `db:"description"`
	FabricID           *id.ID      `db:"fabric_id"`
	UnitPrice          types.Money `db:"unit_price"`
	DiscountPercentage types.Money `db:"discount_percentage"`
	LineTotal          types.Money `db:"line_total"`
	Status             Status      `db:"status"`
	SortOrder          int         `db:"sort_order"`
}

// HistoryEntry records one status transition of an order or of a single line.
type HistoryEntry struct {
	ID         id.ID     `db:"id"`
	OrderID    id.ID     `db:"order_id"`
	LineID     *id.ID    `db:"line_id"`
	FromStatus *Status   `db:"from_status"`
	ToStatus   Status    `db:"to_status"`
	Notes      string    `db:"notes"`
	Actor      string    `db:"actor"`
	CreatedAt  time.Time `db:"created_at"`
}

// FittingStatus of a scheduled fitting.
type FittingStatus string

const (
	FittingScheduled FittingStatus = "scheduled"
	FittingCompleted FittingStatus = "completed"
	FittingCancelled FittingStatus = "cancelled"
)

// Fitting is a numbered try-on session of a tailoring order.
type Fitting struct {
	ID            id.ID         `db:"id"`
	OrderID       id.ID         `db:"order_id"`
	FittingNumber int           `db:"fitting_number"`
	Date          time.Time     `db:"fitting_date"`
	Time          string        `db:"fitting_time"`
	TailorID      *id.ID        `db:"tailor_id"`
	Status        FittingStatus `db:"status"`
	Notes         string        `db:"notes"`
	CreatedAt     time.Time     `db:"created_at"`
}

// CreateInput is the request to create an order.
type CreateInput struct {
	Kind                  Kind        `validate:"required,oneof=tailoring online"`
	StoreID               id.ID       `validate:"required"`
	ClientID              *id.ID
	DiscountPercentage    types.Money
	EstimatedDeliveryDate *time.Time
	Notes                 string      `validate:"max=2000"`
	Lines                 []LineInput `validate:"required,min=1,max=200,dive"`
}

// LineInput is one line of CreateInput.
type LineInput struct {
	Description        string `validate:"required,max=500"`
	FabricID           *id.ID
	UnitPrice          types.Money
	DiscountPercentage types.Money
}

// ChangeStatusInput moves an order, or one of its lines, to a new status.
type ChangeStatusInput struct {
	OrderID id.ID
	LineID  *id.ID
	Status  string
	Notes   string
}

// FittingInput schedules a fitting.
type FittingInput struct {
	OrderID  id.ID
	Date     time.Time
	Time     string
	TailorID *id.ID
	Notes    string
}
