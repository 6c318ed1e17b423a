// Package order_repo provides the PostgreSQL implementation of orders.Repository.
package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/id"
	"atelier/internal/domain/orders"
	"atelier/internal/infrastructure/storage/postgres"
)

const (
	ordersTable   = "orders"
	linesTable    = "order_lines"
	historyTable  = "order_status_history"
	fittingsTable = "order_fittings"
	storesTable   = "stores"
)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	postgres.Repo
	orderCols []string
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		Repo:      postgres.NewRepo(txm),
		orderCols: postgres.Columns[orders.Order](),
	}
}

var _ orders.Repository = (*OrderRepo)(nil)

// Create inserts the order header.
func (r *OrderRepo) Create(ctx context.Context, order *orders.Order) error {
	return r.Insert(ctx, ordersTable, order)
}

// SaveLines inserts the order lines.
func (r *OrderRepo) SaveLines(ctx context.Context, orderID id.ID, lines []orders.Line) error {
	return postgres.InsertMany(ctx, r.Repo, linesTable, lines)
}

func (r *OrderRepo) selectOrder(orderID id.ID) squirrel.SelectBuilder {
	return r.SQ().Select(r.orderCols...).From(ordersTable).Where(squirrel.Eq{"id": orderID})
}

// GetByID returns the order header.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	var order orders.Order
	if err := r.Get(ctx, &order, r.selectOrder(orderID), "order", orderID); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForUpdate returns the order header and locks its row.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	var order orders.Order
	if err := r.Get(ctx, &order, r.selectOrder(orderID).Suffix("FOR UPDATE"), "order", orderID); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetLines returns the lines in display order.
func (r *OrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]orders.Line, error) {
	q := r.SQ().
		Select(postgres.Columns[orders.Line]()...).
		From(linesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("sort_order")

	var lines []orders.Line
	if err := r.Select(ctx, &lines, q); err != nil {
		return nil, fmt.Errorf("select order lines: %w", err)
	}
	return lines, nil
}

// UpdateStatus persists the order status and delivery date.
func (r *OrderRepo) UpdateStatus(ctx context.Context, order *orders.Order) error {
	_, err := r.Exec(ctx, r.SQ().Update(ordersTable).
		Set("status", order.Status).
		Set("actual_delivery_date", order.ActualDeliveryDate).
		Set("updated_at", order.UpdatedAt).
		Where(squirrel.Eq{"id": order.ID}))
	return err
}

// UpdateLineStatus sets the status of one line.
func (r *OrderRepo) UpdateLineStatus(ctx context.Context, lineID id.ID, status orders.Status) error {
	_, err := r.Exec(ctx, r.SQ().Update(linesTable).
		Set("status", status).
		Where(squirrel.Eq{"id": lineID}))
	return err
}

// UpdateAllLineStatuses sets the status of every line of an order.
func (r *OrderRepo) UpdateAllLineStatuses(ctx context.Context, orderID id.ID, status orders.Status) error {
	_, err := r.Exec(ctx, r.SQ().Update(linesTable).
		Set("status", status).
		Where(squirrel.Eq{"order_id": orderID}))
	return err
}

// AddHistory appends a status history row.
func (r *OrderRepo) AddHistory(ctx context.Context, entry *orders.HistoryEntry) error {
	return r.Insert(ctx, historyTable, entry)
}

// ListHistory returns the history of an order, oldest first.
func (r *OrderRepo) ListHistory(ctx context.Context, orderID id.ID) ([]orders.HistoryEntry, error) {
	q := r.SQ().
		Select(postgres.Columns[orders.HistoryEntry]()...).
		From(historyTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at", "id")

	var entries []orders.HistoryEntry
	if err := r.Select(ctx, &entries, q); err != nil {
		return nil, fmt.Errorf("select order history: %w", err)
	}
	return entries, nil
}

// StoreOrderPrefix returns the configured prefix of a store, or "".
func (r *OrderRepo) StoreOrderPrefix(ctx context.Context, storeID id.ID) (string, error) {
	q := r.SQ().
		Select("COALESCE(order_prefix, '')").
		From(storesTable).
		Where(squirrel.Eq{"id": storeID})

	var prefix string
	if err := r.Get(ctx, &prefix, q, "store", storeID); err != nil {
		return "", err
	}
	return prefix, nil
}

// MaxFittingNumber returns the highest fitting number of an order, or 0.
func (r *OrderRepo) MaxFittingNumber(ctx context.Context, orderID id.ID) (int, error) {
	q := r.SQ().
		Select("COALESCE(MAX(fitting_number), 0)").
		From(fittingsTable).
		Where(squirrel.Eq{"order_id": orderID})

	var n int
	if err := r.Get(ctx, &n, q, "order", orderID); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateFitting inserts a fitting.
func (r *OrderRepo) CreateFitting(ctx context.Context, fitting *orders.Fitting) error {
	return r.Insert(ctx, fittingsTable, fitting)
}

// ListFittings returns the fittings of an order by number.
func (r *OrderRepo) ListFittings(ctx context.Context, orderID id.ID) ([]orders.Fitting, error) {
	q := r.SQ().
		Select(postgres.Columns[orders.Fitting]()...).
		From(fittingsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("fitting_number")

	var fittings []orders.Fitting
	if err := r.Select(ctx, &fittings, q); err != nil {
		return nil, fmt.Errorf("select fittings: %w", err)
	}
	return fittings, nil
}
