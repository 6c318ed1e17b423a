package payments

import (
	"context"
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Repository persists payments and the balances of their parents.
type Repository interface {
	// LockTarget locks the parent order or sale row until the transaction
	// ends and returns its total and status. NOT_FOUND when absent.
	LockTarget(ctx context.Context, target Target) (Parent, error)

	Insert(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	Delete(ctx context.Context, paymentID id.ID) error

	// SumForTarget returns the sum of all payments of target.
	SumForTarget(ctx context.Context, target Target) (types.Money, error)
	ListForTarget(ctx context.Context, target Target) ([]Payment, error)

	UpdateOrderBalance(ctx context.Context, orderID id.ID, paid, pending types.Money) error
	UpdateSaleBalance(ctx context.Context, saleID id.ID, paid types.Money, status PaymentStatus) error

	// ListPending returns outstanding orders and sales, newest first.
	ListPending(ctx context.Context, filter PendingFilter) ([]PendingItem, error)

	// CountOverdue counts outstanding documents whose latest
	// next_payment_date is on or before today, and after since when given.
	CountOverdue(ctx context.Context, today time.Time, since *time.Time) (int, error)
}
