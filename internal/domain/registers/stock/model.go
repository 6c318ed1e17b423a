package stock

import (
	"time"

	"atelier/internal/core/id"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementAdjustmentPositive MovementType = "adjustment_positive"
	MovementAdjustmentNegative MovementType = "adjustment_negative"
	MovementTransferIn         MovementType = "transfer_in"
	MovementTransferOut        MovementType = "transfer_out"
	MovementSale               MovementType = "sale"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementAdjustmentPositive, MovementAdjustmentNegative,
		MovementTransferIn, MovementTransferOut, MovementSale:
		return true
	}
	return false
}

// Direction of a manual adjustment.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Level is the on-hand quantity of one variant in one warehouse.
// It is the only stock row mutated in place.
type Level struct {
	VariantID   id.ID     `db:"variant_id" json:"variant_id"`
	WarehouseID id.ID     `db:"warehouse_id" json:"warehouse_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Reserved    int       `db:"reserved" json:"reserved"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Available is the quantity not held by reservations.
func (l *Level) Available() int {
	return l.Quantity - l.Reserved
}

// Movement is an append-only record of one change to a Level.
// Quantity is the signed delta; StockAfter = StockBefore + Quantity.
type Movement struct {
	ID           id.ID        `db:"id" json:"id"`
	VariantID    id.ID        `db:"variant_id" json:"variant_id"`
	WarehouseID  id.ID        `db:"warehouse_id" json:"warehouse_id"`
	MovementType MovementType `db:"movement_type" json:"movement_type"`
	Quantity     int          `db:"quantity" json:"quantity"`
	StockBefore  int          `db:"stock_before" json:"stock_before"`
	StockAfter   int          `db:"stock_after" json:"stock_after"`
	Reason       string       `db:"reason" json:"reason,omitempty"`
	ReferenceID  *id.ID       `db:"reference_id" json:"reference_id,omitempty"`
	TransferID   *id.ID       `db:"transfer_id" json:"transfer_id,omitempty"`
	Actor        string       `db:"actor" json:"actor"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// AdjustInput is a manual correction of one level.
type AdjustInput struct {
	VariantID   id.ID
	WarehouseID id.ID
	Quantity    int
	Direction   Direction
	Reason      string
}

// TransferInput moves units between two warehouses.
type TransferInput struct {
	VariantID id.ID
	From      id.ID
	To        id.ID
	Quantity  int
	Reason    string
}

// Transfer is the linked pair of movements written by TransferStock.
type Transfer struct {
	ID  id.ID    `json:"transfer_id"`
	Out Movement `json:"out"`
	In  Movement `json:"in"`
}

// SaleLine is one sold variant.
type SaleLine struct {
	VariantID id.ID
	Quantity  int
}

// MovementFilter narrows GetMovementHistory.
type MovementFilter struct {
	VariantID    *id.ID
	WarehouseID  *id.ID
	MovementType *MovementType
	ReferenceID  *id.ID
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}

// ReconcileReport compares a level with the replay of its movements.
type ReconcileReport struct {
	VariantID   id.ID `json:"variant_id"`
	WarehouseID id.ID `json:"warehouse_id"`
	Recorded    int   `json:"recorded"`
	Replayed    int   `json:"replayed"`
	Drift       int   `json:"drift"`
	Movements   int   `json:"movements"`
	// Broken counts movements whose before/after do not chain onto the
	// previous movement.
	Broken int `json:"broken"`
}

// Consistent reports whether level and history agree.
func (r ReconcileReport) Consistent() bool {
	return r.Drift == 0 && r.Broken == 0
}
