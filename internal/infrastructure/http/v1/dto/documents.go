package dto

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/documents/invoice"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/documents/sale"
)

// CreateSaleRequest is the body of POST /sales.
type CreateSaleRequest struct {
	StoreID     id.ID                   `json:"store_id" binding:"required"`
	WarehouseID *id.ID                  `json:"warehouse_id"`
	ClientID    *id.ID                  `json:"client_id"`
	SaleDate    string                  `json:"sale_date"`
	Notes       string                  `json:"notes" binding:"max=2000"`
	Lines       []CreateSaleLineRequest `json:"lines" binding:"required,min=1,max=200,dive"`
}

// CreateSaleLineRequest is one line of CreateSaleRequest.
type CreateSaleLineRequest struct {
	VariantID          id.ID       `json:"variant_id" binding:"required"`
	Description        string      `json:"description" binding:"max=500"`
	Quantity           int         `json:"quantity" binding:"required,gt=0"`
	UnitPrice          types.Money `json:"unit_price"`
	DiscountPercentage types.Money `json:"discount_percentage"`
}

// ToInput converts the request to the domain input. A missing sale date
// means today.
func (r CreateSaleRequest) ToInput(today time.Time) (sale.CreateInput, error) {
	date, err := parseDate("sale_date", r.SaleDate, types.DateOf(today))
	if err != nil {
		return sale.CreateInput{}, err
	}
	in := sale.CreateInput{
		StoreID:     r.StoreID,
		WarehouseID: r.WarehouseID,
		ClientID:    r.ClientID,
		SaleDate:    date,
		Notes:       r.Notes,
		Lines:       make([]sale.LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in.Lines[i] = sale.LineInput{
			VariantID:          l.VariantID,
			Description:        l.Description,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			DiscountPercentage: l.DiscountPercentage,
		}
	}
	return in, nil
}

// CreateSupplierRequest is the body of POST /suppliers.
type CreateSupplierRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	TaxID string `json:"tax_id" binding:"max=20"`
	Email string `json:"email" binding:"omitempty,email"`
}

// ToInput converts the request to the domain input.
func (r CreateSupplierRequest) ToInput() purchase_order.SupplierInput {
	return purchase_order.SupplierInput{Name: r.Name, TaxID: r.TaxID, Email: r.Email}
}

// CreatePurchaseOrderRequest is the body of POST /purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierID id.ID                            `json:"supplier_id" binding:"required"`
	OrderDate  string                           `json:"order_date"`
	Notes      string                           `json:"notes" binding:"max=2000"`
	Lines      []CreatePurchaseOrderLineRequest `json:"lines" binding:"required,min=1,max=200,dive"`
}

// CreatePurchaseOrderLineRequest is one line of CreatePurchaseOrderRequest.
type CreatePurchaseOrderLineRequest struct {
	VariantID   *id.ID      `json:"variant_id"`
	Description string      `json:"description" binding:"required,max=500"`
	Quantity    int         `json:"quantity" binding:"required,gt=0"`
	UnitCost    types.Money `json:"unit_cost"`
}

// ToInput converts the request to the domain input.
func (r CreatePurchaseOrderRequest) ToInput(today time.Time) (purchase_order.CreateInput, error) {
	date, err := parseDate("order_date", r.OrderDate, types.DateOf(today))
	if err != nil {
		return purchase_order.CreateInput{}, err
	}
	in := purchase_order.CreateInput{
		SupplierID: r.SupplierID,
		OrderDate:  date,
		Notes:      r.Notes,
		Lines:      make([]purchase_order.LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in.Lines[i] = purchase_order.LineInput{
			VariantID:   l.VariantID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
		}
	}
	return in, nil
}

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	OrderID        *id.ID                     `json:"order_id"`
	SaleID         *id.ID                     `json:"sale_id"`
	ClientID       *id.ID                     `json:"client_id"`
	InvoiceDate    string                     `json:"invoice_date"`
	IRPFPercentage types.Money                `json:"irpf_percentage"`
	Notes          string                     `json:"notes" binding:"max=2000"`
	Lines          []CreateInvoiceLineRequest `json:"lines" binding:"required,min=1,max=200,dive"`
}

// CreateInvoiceLineRequest is one line of CreateInvoiceRequest.
type CreateInvoiceLineRequest struct {
	Description string      `json:"description" binding:"required,max=500"`
	Quantity    int         `json:"quantity" binding:"required,gt=0"`
	UnitPrice   types.Money `json:"unit_price"`
}

// ToInput converts the request to the domain input.
func (r CreateInvoiceRequest) ToInput(today time.Time) (invoice.CreateInput, error) {
	date, err := parseDate("invoice_date", r.InvoiceDate, types.DateOf(today))
	if err != nil {
		return invoice.CreateInput{}, err
	}
	in := invoice.CreateInput{
		OrderID:        r.OrderID,
		SaleID:         r.SaleID,
		ClientID:       r.ClientID,
		InvoiceDate:    date,
		IRPFPercentage: r.IRPFPercentage,
		Notes:          r.Notes,
		Lines:          make([]invoice.LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in.Lines[i] = invoice.LineInput{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}
	return in, nil
}
