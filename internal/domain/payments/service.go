package payments

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/pkg/logger"
)

// EventPayload is the outbox payload of payment events.
type EventPayload struct {
	PaymentID id.ID       `json:"payment_id"`
	Target    Target      `json:"target"`
	Amount    types.Money `json:"amount"`
	Summary   Summary     `json:"summary"`
}

// Service records payments. Every mutation locks the parent document,
// changes history and recomputes the parent's balance from all remaining
// payments in one transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
	events    events.Publisher
	now       func() time.Time
}

// NewService creates a new payment service.
func NewService(repo Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		events:    publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AddPayment records a payment against an order or sale. An amount larger
// than the outstanding balance is rejected, and so is a payment against a
// cancelled order or a voided sale.
func (s *Service) AddPayment(ctx context.Context, in AddInput) (*Result, error) {
	if err := validateAdd(in); err != nil {
		return nil, err
	}

	payment := &Payment{
		ID:              id.New(),
		TargetKind:      in.Target.Kind,
		TargetID:        in.Target.ID,
		Amount:          types.Round2(in.Amount),
		Method:          in.Method,
		PaymentDate:     types.DateOf(in.PaymentDate),
		Reference:       in.Reference,
		NextPaymentDate: in.NextPaymentDate,
		Actor:           appctx.GetActorID(ctx),
		CreatedAt:       s.now().UTC(),
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = types.DateOf(payment.CreatedAt)
	}

	var summary Summary
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		parent, err := s.repo.LockTarget(ctx, in.Target)
		if err != nil {
			return err
		}
		if !parent.AcceptsPayments(in.Target.Kind) {
			return apperror.NewValidation(fmt.Sprintf("%s is %s and does not accept payments", in.Target.Kind, parent.Status)).
				WithDetail("status", parent.Status)
		}
		total := parent.Total
		paid, err := s.repo.SumForTarget(ctx, in.Target)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		outstanding := total.Sub(paid)
		if payment.Amount.GreaterThan(outstanding) {
			return apperror.NewValidation("payment exceeds outstanding balance").
				WithDetail("amount", payment.Amount.StringFixed(2)).
				WithDetail("outstanding", outstanding.StringFixed(2))
		}

		if err := s.repo.Insert(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		summary, err = s.recompute(ctx, in.Target, total)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.PaymentRecorded, payment, summary)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"id", payment.ID,
		"target", in.Target.Kind,
		"target_id", in.Target.ID,
		"amount", payment.Amount.StringFixed(2),
		"total_pending", summary.TotalPending.StringFixed(2))

	return &Result{Payment: payment, Summary: summary}, nil
}

func validateAdd(in AddInput) error {
	if !in.Target.Kind.Valid() {
		return apperror.NewValidation("unknown payment target").WithDetail("kind", in.Target.Kind)
	}
	if id.IsNil(in.Target.ID) {
		return apperror.NewValidation("payment target id is required").WithDetail("field", "target_id")
	}
	if err := domain.ValidateStruct(in); err != nil {
		return err
	}
	return domain.RequirePositive("amount", types.Round2(in.Amount))
}

// DeletePayment removes a payment and recomputes its parent.
func (s *Service) DeletePayment(ctx context.Context, paymentID id.ID) (*Result, error) {
	var (
		payment *Payment
		summary Summary
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.repo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		target := payment.Target()

		parent, err := s.repo.LockTarget(ctx, target)
		if err != nil {
			return err
		}
		total := parent.Total
		if err := s.repo.Delete(ctx, paymentID); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}

		summary, err = s.recompute(ctx, target, total)
		if err != nil {
			return err
		}
		return s.publish(ctx, events.PaymentDeleted, payment, summary)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment deleted",
		"id", paymentID,
		"target_id", payment.TargetID,
		"total_pending", summary.TotalPending.StringFixed(2))

	return &Result{Payment: payment, Summary: summary}, nil
}

// recompute derives the parent's balance from its full payment history.
// The caller must hold the parent lock.
func (s *Service) recompute(ctx context.Context, target Target, total types.Money) (Summary, error) {
	paid, err := s.repo.SumForTarget(ctx, target)
	if err != nil {
		return Summary{}, fmt.Errorf("sum payments: %w", err)
	}
	paid = types.Round2(paid)

	pending := total.Sub(paid)
	if pending.IsNegative() {
		pending = types.Zero()
	}

	summary := Summary{Target: target, Total: total, TotalPaid: paid, TotalPending: pending}

	switch target.Kind {
	case TargetOrder:
		err = s.repo.UpdateOrderBalance(ctx, target.ID, paid, pending)
	case TargetSale:
		summary.PaymentStatus = StatusFor(total, paid)
		err = s.repo.UpdateSaleBalance(ctx, target.ID, paid, summary.PaymentStatus)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("update %s balance: %w", target.Kind, err)
	}
	return summary, nil
}

func (s *Service) publish(ctx context.Context, eventType string, p *Payment, summary Summary) error {
	aggregate := events.AggregateOrder
	if p.TargetKind == TargetSale {
		aggregate = events.AggregateSale
	}
	err := s.events.Publish(ctx, events.Event{
		AggregateType: aggregate,
		AggregateID:   p.TargetID,
		Type:          eventType,
		Payload: EventPayload{
			PaymentID: p.ID,
			Target:    p.Target(),
			Amount:    p.Amount,
			Summary:   summary,
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// ListPayments returns the payments of one order or sale, oldest first.
func (s *Service) ListPayments(ctx context.Context, target Target) ([]Payment, error) {
	if !target.Kind.Valid() {
		return nil, apperror.NewValidation("unknown payment target").WithDetail("kind", target.Kind)
	}
	return s.repo.ListForTarget(ctx, target)
}

// GetPendingPayments lists outstanding orders and sales, at most
// MaxPendingRows of them.
func (s *Service) GetPendingPayments(ctx context.Context, filter PendingFilter) ([]PendingItem, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, apperror.NewValidation("unknown payment target").WithDetail("kind", filter.Kind)
	}
	if filter.Limit <= 0 || filter.Limit > MaxPendingRows {
		filter.Limit = MaxPendingRows
	}

	items, err := s.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	today := types.DateOf(s.now())
	for i := range items {
		created := types.DateOf(items[i].CreatedAt)
		items[i].DaysSinceCreation = int(today.Sub(created).Hours() / 24)
	}
	return items, nil
}

// GetOverduePaymentsCount counts outstanding documents whose promised
// next payment date has passed. With since, only dates after it count.
func (s *Service) GetOverduePaymentsCount(ctx context.Context, since *time.Time) (int, error) {
	var sinceDate *time.Time
	if since != nil {
		d := types.DateOf(*since)
		sinceDate = &d
	}
	return s.repo.CountOverdue(ctx, types.DateOf(s.now()), sinceDate)
}
