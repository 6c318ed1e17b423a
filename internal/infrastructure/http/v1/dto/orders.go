package dto

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/orders"
)

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Kind                  orders.Kind              `json:"kind" binding:"required,oneof=tailoring online"`
	StoreID               id.ID                    `json:"store_id" binding:"required"`
	ClientID              *id.ID                   `json:"client_id"`
	DiscountPercentage    types.Money              `json:"discount_percentage"`
	EstimatedDeliveryDate *string                  `json:"estimated_delivery_date"`
	Notes                 string                   `json:"notes" binding:"max=2000"`
	Lines                 []CreateOrderLineRequest `json:"lines" binding:"required,min=1,max=200,dive"`
}

// CreateOrderLineRequest is one line of CreateOrderRequest.
type CreateOrderLineRequest struct {
	Description        string      `json:"description" binding:"required,max=500"`
	FabricID           *id.ID      `json:"fabric_id"`
	UnitPrice          types.Money `json:"unit_price"`
	DiscountPercentage types.Money `json:"discount_percentage"`
}

// ToInput converts the request to the domain input.
func (r CreateOrderRequest) ToInput() (orders.CreateInput, error) {
	delivery, err := parseOptionalDate("estimated_delivery_date", r.EstimatedDeliveryDate)
	if err != nil {
		return orders.CreateInput{}, err
	}
	in := orders.CreateInput{
		Kind:                  r.Kind,
		StoreID:               r.StoreID,
		ClientID:              r.ClientID,
		DiscountPercentage:    r.DiscountPercentage,
		EstimatedDeliveryDate: delivery,
		Notes:                 r.Notes,
		Lines:                 make([]orders.LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in.Lines[i] = orders.LineInput{
			Description:        l.Description,
			FabricID:           l.FabricID,
			UnitPrice:          l.UnitPrice,
			DiscountPercentage: l.DiscountPercentage,
		}
	}
	return in, nil
}

// ChangeStatusRequest is the body of POST /orders/:id/status. LineID
// targets one line instead of the whole order.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	LineID *id.ID `json:"line_id"`
	Notes  string `json:"notes" binding:"max=2000"`
}

// ToInput converts the request to the domain input.
func (r ChangeStatusRequest) ToInput(orderID id.ID) orders.ChangeStatusInput {
	return orders.ChangeStatusInput{
		OrderID: orderID,
		LineID:  r.LineID,
		Status:  r.Status,
		Notes:   r.Notes,
	}
}

// ScheduleFittingRequest is the body of POST /orders/:id/fittings.
type ScheduleFittingRequest struct {
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	TailorID *id.ID `json:"tailor_id"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// ToInput converts the request to the domain input.
func (r ScheduleFittingRequest) ToInput(orderID id.ID) (orders.FittingInput, error) {
	date, err := parseDate("date", r.Date, time.Time{})
	if err != nil {
		return orders.FittingInput{}, err
	}
	return orders.FittingInput{
		OrderID:  orderID,
		Date:     date,
		Time:     r.Time,
		TailorID: r.TailorID,
		Notes:    r.Notes,
	}, nil
}
