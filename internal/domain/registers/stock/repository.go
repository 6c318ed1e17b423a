// Package stock provides the stock ledger: per (variant, warehouse) levels
// guarded by row locks, and the append-only movement history behind them.
package stock

import (
	"context"
	"time"

	"atelier/internal/core/id"
)

// Repository defines operations for the stock ledger.
// Every method joins the transaction carried by ctx.
type Repository interface {
	// Level operations

	// EnsureLevel provisions a zero level row if none exists.
	EnsureLevel(ctx context.Context, variantID, warehouseID id.ID) error

	// GetLevel returns the level, or NOT_FOUND.
	GetLevel(ctx context.Context, variantID, warehouseID id.ID) (*Level, error)

	// GetLevelForUpdate returns the level with a row lock, or NOT_FOUND.
	GetLevelForUpdate(ctx context.Context, variantID, warehouseID id.ID) (*Level, error)

	// FirstLevelForUpdate locks the variant's level with the lowest
	// warehouse id, or returns NOT_FOUND when the variant has none.
	FirstLevelForUpdate(ctx context.Context, variantID id.ID) (*Level, error)

	// ListLevelsByVariant returns the variant's levels across warehouses.
	ListLevelsByVariant(ctx context.Context, variantID id.ID) ([]Level, error)

	// SetQuantity writes the new on-hand quantity of a locked level.
	SetQuantity(ctx context.Context, variantID, warehouseID id.ID, quantity int, at time.Time) error

	// Movement operations

	// CreateMovements batch inserts movements.
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetMovementHistory returns movements matching filter, newest first.
	GetMovementHistory(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// ListMovements returns every movement of one level in creation order.
	ListMovements(ctx context.Context, variantID, warehouseID id.ID) ([]Movement, error)
}
