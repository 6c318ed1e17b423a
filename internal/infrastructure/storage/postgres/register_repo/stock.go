// Package register_repo provides the PostgreSQL implementation of the
// stock ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/id"
	"atelier/internal/domain/registers/stock"
	"atelier/internal/infrastructure/storage/postgres"
)

const (
	stockLevelsTable    = "stock_levels"
	stockMovementsTable = "stock_movements"
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	postgres.Repo
	levelCols    []string
	movementCols []string
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		Repo:         postgres.NewRepo(txm),
		levelCols:    postgres.Columns[stock.Level](),
		movementCols: postgres.Columns[stock.Movement](),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

func levelKey(variantID, warehouseID id.ID) squirrel.Eq {
	return squirrel.Eq{"variant_id": variantID, "warehouse_id": warehouseID}
}

// EnsureLevel provisions a zero level row if none exists.
func (r *StockRepo) EnsureLevel(ctx context.Context, variantID, warehouseID id.ID) error {
	q := r.SQ().Insert(stockLevelsTable).
		Columns("variant_id", "warehouse_id", "quantity", "reserved", "updated_at").
		Values(variantID, warehouseID, 0, 0, time.Now().UTC()).
		Suffix("ON CONFLICT (variant_id, warehouse_id) DO NOTHING")
	if _, err := r.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure stock level: %w", err)
	}
	return nil
}

func (r *StockRepo) getLevel(ctx context.Context, where squirrel.Sqlizer, suffix string, key any) (*stock.Level, error) {
	q := r.SQ().Select(r.levelCols...).From(stockLevelsTable).Where(where)
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	var lvl stock.Level
	if err := r.Get(ctx, &lvl, q, "stock level", key); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// GetLevel returns the level of a variant in a warehouse.
func (r *StockRepo) GetLevel(ctx context.Context, variantID, warehouseID id.ID) (*stock.Level, error) {
	return r.getLevel(ctx, levelKey(variantID, warehouseID), "", variantID)
}

// GetLevelForUpdate returns the level with a row lock.
func (r *StockRepo) GetLevelForUpdate(ctx context.Context, variantID, warehouseID id.ID) (*stock.Level, error) {
	return r.getLevel(ctx, levelKey(variantID, warehouseID), "FOR UPDATE", variantID)
}

// FirstLevelForUpdate locks the variant's level with the lowest warehouse id.
func (r *StockRepo) FirstLevelForUpdate(ctx context.Context, variantID id.ID) (*stock.Level, error) {
	return r.getLevel(ctx, squirrel.Eq{"variant_id": variantID}, "ORDER BY warehouse_id LIMIT 1 FOR UPDATE", variantID)
}

// ListLevelsByVariant returns the variant's levels across warehouses.
func (r *StockRepo) ListLevelsByVariant(ctx context.Context, variantID id.ID) ([]stock.Level, error) {
	q := r.SQ().Select(r.levelCols...).
		From(stockLevelsTable).
		Where(squirrel.Eq{"variant_id": variantID}).
		OrderBy("warehouse_id")
	var levels []stock.Level
	if err := r.Select(ctx, &levels, q); err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	return levels, nil
}

// SetQuantity writes the new on-hand quantity of a locked level.
func (r *StockRepo) SetQuantity(ctx context.Context, variantID, warehouseID id.ID, quantity int, at time.Time) error {
	_, err := r.Exec(ctx, r.SQ().Update(stockLevelsTable).
		Set("quantity", quantity).
		Set("updated_at", at).
		Where(levelKey(variantID, warehouseID)))
	if err != nil {
		return fmt.Errorf("set stock quantity: %w", err)
	}
	return nil
}

// CreateMovements batch inserts movements. Inside a transaction it uses
// COPY; outside one it falls back to a multi-row INSERT.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	txm := r.TxManager()
	if tx := txm.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(movements))
		for i := range movements {
			rows = append(rows, postgres.StructValues(&movements[i], r.movementCols))
		}
		if _, err := postgres.NewBatchInserter(txm).CopyFromSlice(ctx, stockMovementsTable, r.movementCols, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	return postgres.InsertMany(ctx, r.Repo, stockMovementsTable, movements)
}

func (r *StockRepo) historyQuery(filter stock.MovementFilter) squirrel.SelectBuilder {
	q := r.SQ().Select(r.movementCols...).From(stockMovementsTable)
	if filter.VariantID != nil {
		q = q.Where(squirrel.Eq{"variant_id": *filter.VariantID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.MovementType})
	}
	if filter.ReferenceID != nil {
		q = q.Where(squirrel.Eq{"reference_id": *filter.ReferenceID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}
	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// GetMovementHistory returns movements matching filter, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	var out []stock.Movement
	if err := r.Select(ctx, &out, r.historyQuery(filter)); err != nil {
		return nil, fmt.Errorf("movement history: %w", err)
	}
	return out, nil
}

// ListMovements returns every movement of one level in creation order.
func (r *StockRepo) ListMovements(ctx context.Context, variantID, warehouseID id.ID) ([]stock.Movement, error) {
	q := r.SQ().Select(r.movementCols...).
		From(stockMovementsTable).
		Where(levelKey(variantID, warehouseID)).
		OrderBy("created_at", "id")
	var out []stock.Movement
	if err := r.Select(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}
