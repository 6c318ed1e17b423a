package dto

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/payments"
)

// AddPaymentRequest is the body of POST /payments.
type AddPaymentRequest struct {
	TargetKind      payments.TargetKind `json:"target_kind" binding:"required,oneof=order sale"`
	TargetID        id.ID               `json:"target_id" binding:"required"`
	Amount          types.Money         `json:"amount"`
	Method          payments.Method     `json:"method" binding:"required"`
	PaymentDate     string              `json:"payment_date"`
	Reference       *string             `json:"reference"`
	NextPaymentDate *string             `json:"next_payment_date"`
}

// ToInput converts the request to the domain input. A missing payment
// date means today.
func (r AddPaymentRequest) ToInput(today time.Time) (payments.AddInput, error) {
	paid, err := parseDate("payment_date", r.PaymentDate, types.DateOf(today))
	if err != nil {
		return payments.AddInput{}, err
	}
	next, err := parseOptionalDate("next_payment_date", r.NextPaymentDate)
	if err != nil {
		return payments.AddInput{}, err
	}
	return payments.AddInput{
		Target:          payments.Target{Kind: r.TargetKind, ID: r.TargetID},
		Amount:          r.Amount,
		Method:          r.Method,
		PaymentDate:     paid,
		Reference:       r.Reference,
		NextPaymentDate: next,
	}, nil
}

// PendingPaymentsQuery is the query of GET /payments/pending.
type PendingPaymentsQuery struct {
	Kind   payments.TargetKind `form:"kind" binding:"omitempty,oneof=order sale"`
	Search string              `form:"search" binding:"max=100"`
	Limit  int                 `form:"limit" binding:"omitempty,min=1"`
}

// ToFilter converts the query to the domain filter.
func (q PendingPaymentsQuery) ToFilter() payments.PendingFilter {
	return payments.PendingFilter{Kind: q.Kind, Search: q.Search, Limit: q.Limit}
}

// OverdueCountResponse is the data of GET /payments/overdue-count.
type OverdueCountResponse struct {
	Count int `json:"count"`
}
