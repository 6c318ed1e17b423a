// Package payment_repo provides the PostgreSQL implementation of
// payments.Repository.
package payment_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/payments"
	"atelier/internal/infrastructure/storage/postgres"
)

const paymentsTable = "payments"

// parentTables maps a payment target to its table and balance column.
var parentTables = map[payments.TargetKind]struct{ table, entity string }{
	payments.TargetOrder: {"orders", "order"},
	payments.TargetSale:  {"sales", "sale"},
}

// pendingSQL lists outstanding orders and sales with their most recent
// payment. Cancelled or refunded orders and voided sales are excluded; open sales
// count because they accept payments before completion.
const pendingSQL = `(
	SELECT 'order' AS kind, o.id, o.order_number AS number, o.client_id,
	       NULLIF(TRIM(c.first_name || ' ' || c.last_name), '') AS client_name,
	       o.total, o.total_paid, o.total_pending, o.created_at,
	       lp.payment_date AS last_payment_date, lp.next_payment_date
	FROM orders o
	LEFT JOIN clients c ON c.id = o.client_id
	LEFT JOIN LATERAL (
		SELECT p.payment_date, p.next_payment_date FROM payments p
		WHERE p.target_kind = 'order' AND p.target_id = o.id
		ORDER BY p.payment_date DESC, p.created_at DESC
		LIMIT 1
	) lp ON TRUE
	WHERE o.total_pending > 0 AND o.status NOT IN ('cancelled', 'refunded')
	UNION ALL
	SELECT 'sale' AS kind, s.id, s.sale_number AS number, s.client_id,
	       NULLIF(TRIM(c.first_name || ' ' || c.last_name), '') AS client_name,
	       s.total, s.amount_paid AS total_paid, s.total - s.amount_paid AS total_pending, s.created_at,
	       lp.payment_date AS last_payment_date, lp.next_payment_date
	FROM sales s
	LEFT JOIN clients c ON c.id = s.client_id
	LEFT JOIN LATERAL (
		SELECT p.payment_date, p.next_payment_date FROM payments p
		WHERE p.target_kind = 'sale' AND p.target_id = s.id
		ORDER BY p.payment_date DESC, p.created_at DESC
		LIMIT 1
	) lp ON TRUE
	WHERE s.status IN ('open', 'completed') AND s.payment_status IN ('pending', 'partial')
) AS pending`

// PaymentRepo implements payments.Repository.
type PaymentRepo struct {
	postgres.Repo
	cols []string
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		Repo: postgres.NewRepo(txm),
		cols: postgres.Columns[payments.Payment](),
	}
}

var _ payments.Repository = (*PaymentRepo)(nil)

func parentOf(kind payments.TargetKind) (string, string, error) {
	p, ok := parentTables[kind]
	if !ok {
		return "", "", apperror.NewValidation("unknown payment target").WithDetail("kind", kind)
	}
	return p.table, p.entity, nil
}

func (r *PaymentRepo) lockTargetQuery(target payments.Target) (squirrel.SelectBuilder, string, error) {
	table, entity, err := parentOf(target.Kind)
	if err != nil {
		return squirrel.SelectBuilder{}, "", err
	}
	q := r.SQ().Select("total", "status").From(table).Where(squirrel.Eq{"id": target.ID}).Suffix("FOR UPDATE")
	return q, entity, nil
}

// LockTarget locks the parent row and returns its total and status.
func (r *PaymentRepo) LockTarget(ctx context.Context, target payments.Target) (payments.Parent, error) {
	q, entity, err := r.lockTargetQuery(target)
	if err != nil {
		return payments.Parent{}, err
	}
	var parent payments.Parent
	if err := r.Get(ctx, &parent, q, entity, target.ID); err != nil {
		return payments.Parent{}, err
	}
	return parent, nil
}

// Insert stores a payment.
func (r *PaymentRepo) Insert(ctx context.Context, p *payments.Payment) error {
	return r.Repo.Insert(ctx, paymentsTable, p)
}

// GetByID returns a payment.
func (r *PaymentRepo) GetByID(ctx context.Context, paymentID id.ID) (*payments.Payment, error) {
	q := r.SQ().Select(r.cols...).From(paymentsTable).Where(squirrel.Eq{"id": paymentID})
	var p payments.Payment
	if err := r.Get(ctx, &p, q, "payment", paymentID); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a payment.
func (r *PaymentRepo) Delete(ctx context.Context, paymentID id.ID) error {
	n, err := r.Exec(ctx, r.SQ().Delete(paymentsTable).Where(squirrel.Eq{"id": paymentID}))
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("payment", paymentID)
	}
	return nil
}

func targetFilter(target payments.Target) squirrel.Eq {
	return squirrel.Eq{"target_kind": target.Kind, "target_id": target.ID}
}

// SumForTarget sums the payments of target.
func (r *PaymentRepo) SumForTarget(ctx context.Context, target payments.Target) (types.Money, error) {
	q := r.SQ().Select("COALESCE(SUM(amount), 0)").From(paymentsTable).Where(targetFilter(target))
	var sum types.Money
	if err := r.Get(ctx, &sum, q, "payment", target.ID); err != nil {
		return types.Zero(), err
	}
	return sum, nil
}

// ListForTarget returns the payments of target, oldest first.
func (r *PaymentRepo) ListForTarget(ctx context.Context, target payments.Target) ([]payments.Payment, error) {
	q := r.SQ().Select(r.cols...).From(paymentsTable).Where(targetFilter(target)).OrderBy("payment_date", "created_at")
	var out []payments.Payment
	if err := r.Select(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

// UpdateOrderBalance stores the recomputed order balance.
func (r *PaymentRepo) UpdateOrderBalance(ctx context.Context, orderID id.ID, paid, pending types.Money) error {
	_, err := r.Exec(ctx, r.SQ().Update("orders").
		Set("total_paid", paid).
		Set("total_pending", pending).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": orderID}))
	return err
}

// UpdateSaleBalance stores the recomputed sale balance.
func (r *PaymentRepo) UpdateSaleBalance(ctx context.Context, saleID id.ID, paid types.Money, status payments.PaymentStatus) error {
	_, err := r.Exec(ctx, r.SQ().Update("sales").
		Set("amount_paid", paid).
		Set("payment_status", status).
		Where(squirrel.Eq{"id": saleID}))
	return err
}

func (r *PaymentRepo) pendingQuery(filter payments.PendingFilter) squirrel.SelectBuilder {
	q := r.SQ().
		Select("kind", "id", "number", "client_id", "client_name", "total", "total_paid",
			"total_pending", "created_at", "last_payment_date", "next_payment_date").
		From(pendingSQL)
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"client_name": pattern},
		})
	}
	return q.OrderBy("created_at DESC").Limit(uint64(filter.Limit))
}

// ListPending returns outstanding documents, newest first.
func (r *PaymentRepo) ListPending(ctx context.Context, filter payments.PendingFilter) ([]payments.PendingItem, error) {
	var out []payments.PendingItem
	if err := r.Select(ctx, &out, r.pendingQuery(filter)); err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return out, nil
}

func (r *PaymentRepo) overdueQuery(today time.Time, since *time.Time) squirrel.SelectBuilder {
	q := r.SQ().
		Select("COUNT(*)").
		From(pendingSQL).
		Where(squirrel.LtOrEq{"next_payment_date": today})
	if since != nil {
		q = q.Where(squirrel.Gt{"next_payment_date": *since})
	}
	return q
}

// CountOverdue counts outstanding documents past their next payment date.
func (r *PaymentRepo) CountOverdue(ctx context.Context, today time.Time, since *time.Time) (int, error) {
	var n int
	if err := r.Get(ctx, &n, r.overdueQuery(today, since), "payment", nil); err != nil {
		return 0, err
	}
	return n, nil
}
