package dto

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/domain/registers/stock"
)

// AdjustStockRequest is the body of POST /stock/adjust.
type AdjustStockRequest struct {
	VariantID   id.ID           `json:"variant_id" binding:"required"`
	WarehouseID id.ID           `json:"warehouse_id" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	Direction   stock.Direction `json:"direction" binding:"required,oneof=increase decrease"`
	Reason      string          `json:"reason" binding:"max=500"`
}

// ToInput converts the request to the domain input.
func (r AdjustStockRequest) ToInput() stock.AdjustInput {
	return stock.AdjustInput{
		VariantID:   r.VariantID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		Direction:   r.Direction,
		Reason:      r.Reason,
	}
}

// TransferStockRequest is the body of POST /stock/transfer.
type TransferStockRequest struct {
	VariantID id.ID  `json:"variant_id" binding:"required"`
	From      id.ID  `json:"from_warehouse_id" binding:"required"`
	To        id.ID  `json:"to_warehouse_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reason    string `json:"reason" binding:"max=500"`
}

// ToInput converts the request to the domain input.
func (r TransferStockRequest) ToInput() stock.TransferInput {
	return stock.TransferInput{
		VariantID: r.VariantID,
		From:      r.From,
		To:        r.To,
		Quantity:  r.Quantity,
		Reason:    r.Reason,
	}
}

// MovementsQuery is the query of GET /stock/movements.
type MovementsQuery struct {
	VariantID    string  `form:"variant_id"`
	WarehouseID  string  `form:"warehouse_id"`
	MovementType *string `form:"movement_type"`
	ReferenceID  string  `form:"reference_id"`
	FromDate     *string `form:"from_date"`
	ToDate       *string `form:"to_date"`
	Limit        int     `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset       int     `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to the domain filter. ToDate is inclusive.
func (q MovementsQuery) ToFilter() (stock.MovementFilter, error) {
	from, err := parseOptionalDate("from_date", q.FromDate)
	if err != nil {
		return stock.MovementFilter{}, err
	}
	to, err := parseOptionalDate("to_date", q.ToDate)
	if err != nil {
		return stock.MovementFilter{}, err
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}
	f := stock.MovementFilter{
		FromDate: from,
		ToDate:   to,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if f.VariantID, err = parseOptionalID("variant_id", q.VariantID); err != nil {
		return stock.MovementFilter{}, err
	}
	if f.WarehouseID, err = parseOptionalID("warehouse_id", q.WarehouseID); err != nil {
		return stock.MovementFilter{}, err
	}
	if f.ReferenceID, err = parseOptionalID("reference_id", q.ReferenceID); err != nil {
		return stock.MovementFilter{}, err
	}
	if q.MovementType != nil {
		mt := stock.MovementType(*q.MovementType)
		f.MovementType = &mt
	}
	return f, nil
}
