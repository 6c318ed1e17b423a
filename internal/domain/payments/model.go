// Package payments keeps the paid and pending amounts of orders and sales
// consistent with their payment history.
package payments

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// TargetKind is the kind of document a payment settles.
type TargetKind string

const (
	TargetOrder TargetKind = "order"
	TargetSale  TargetKind = "sale"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetOrder || k == TargetSale
}

// Target identifies the order or sale a payment belongs to.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   id.ID      `json:"id"`
}

// Parent is the locked order or sale a payment applies to.
type Parent struct {
	Total  types.Money `db:"total"`
	Status string      `db:"status"`
}

// closedStatuses are the parent states that no longer accept payments.
var closedStatuses = map[TargetKind][]string{
	TargetOrder: {"cancelled", "refunded"},
	TargetSale:  {"voided"},
}

// AcceptsPayments reports whether a parent of kind in this state can take
// new payments.
func (p Parent) AcceptsPayments(kind TargetKind) bool {
	for _, s := range closedStatuses[kind] {
		if p.Status == s {
			return false
		}
	}
	return true
}

// Method of payment.
type Method string

const (
	MethodCash     Method = "cash"
	MethodCard     Method = "card"
	MethodTransfer Method = "transfer"
	MethodBizum    Method = "bizum"
	MethodOther    Method = "other"
)

// PaymentStatus of a sale, derived from its payments.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

// StatusFor derives the sale payment status from the amount paid.
func StatusFor(total, paid types.Money) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// Payment is one recorded payment. Payments are append-only; deleting one
// removes it from history and recomputes the parent.
type Payment struct {
	ID              id.ID       `db:"id" json:"id"`
	TargetKind      TargetKind  `db:"target_kind" json:"target_kind"`
	TargetID        id.ID       `db:"target_id" json:"target_id"`
	Amount          types.Money `db:"amount" json:"amount"`
	Method          Method      `db:"method" json:"method"`
	PaymentDate     time.Time   `db:"payment_date" json:"payment_date"`
	Reference       *string     `db:"reference" json:"reference,omitempty"`
	NextPaymentDate *time.Time  `db:"next_payment_date" json:"next_payment_date,omitempty"`
	Actor           string      `db:"actor" json:"actor"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// Target returns the document the payment settles.
func (p *Payment) Target() Target {
	return Target{Kind: p.TargetKind, ID: p.TargetID}
}

// Summary is the parent's aggregate state after a recompute.
type Summary struct {
	Target        Target        `json:"target"`
	Total         types.Money   `json:"total"`
	TotalPaid     types.Money   `json:"total_paid"`
	TotalPending  types.Money   `json:"total_pending"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
}

// Result of a payment mutation.
type Result struct {
	Payment *Payment `json:"payment"`
	Summary Summary  `json:"summary"`
}

// AddInput records a payment.
type AddInput struct {
	Target          Target
	Amount          types.Money
	Method          Method `validate:"required,oneof=cash card transfer bizum other"`
	PaymentDate     time.Time
	Reference       *string `validate:"omitempty,max=200"`
	NextPaymentDate *time.Time
}

// MaxPendingRows caps one page of pending payments.
const MaxPendingRows = 200

// PendingFilter narrows GetPendingPayments.
type PendingFilter struct {
	// Kind restricts to orders or sales; empty returns both.
	Kind TargetKind
	// Search matches the document number or client name, case-insensitively.
	Search string
	Limit  int
}

// PendingItem is one order or sale with an outstanding balance.
type PendingItem struct {
	Kind              TargetKind  `db:"kind" json:"kind"`
	ID                id.ID       `db:"id" json:"id"`
	Number            string      `db:"number" json:"number"`
	ClientID          *id.ID      `db:"client_id" json:"client_id,omitempty"`
	ClientName        *string     `db:"client_name" json:"client_name,omitempty"`
	Total             types.Money `db:"total" json:"total"`
	TotalPaid         types.Money `db:"total_paid" json:"total_paid"`
	TotalPending      types.Money `db:"total_pending" json:"total_pending"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	LastPaymentDate   *time.Time  `db:"last_payment_date" json:"last_payment_date,omitempty"`
	NextPaymentDate   *time.Time  `db:"next_payment_date" json:"next_payment_date,omitempty"`
	DaysSinceCreation int         `db:"-" json:"days_since_creation"`
}
