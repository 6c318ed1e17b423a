package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/invoice"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/documents/sale"
	"atelier/internal/infrastructure/http/v1/dto"
)

// documentAction runs a status change on the document in path param "id".
func documentAction[T any](h *BaseHandler, message string, op func(ctx context.Context, docID id.ID) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID, ok := h.ParamID(c, "id")
		if !ok {
			return
		}
		doc, err := op(c.Request.Context(), docID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, message, doc)
	}
}

// SaleHandler serves /sales.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.Now())
	if err != nil {
		h.Error(c, err)
		return
	}
	s, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "sale created", s)
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	documentAction(h.BaseHandler, "", h.service.Get)(c)
}

// Complete handles POST /sales/:id/complete.
func (h *SaleHandler) Complete(c *gin.Context) {
	documentAction(h.BaseHandler, "sale completed", h.service.Complete)(c)
}

// Void handles POST /sales/:id/void.
func (h *SaleHandler) Void(c *gin.Context) {
	documentAction(h.BaseHandler, "sale voided", h.service.Void)(c)
}

// PurchaseOrderHandler serves /suppliers and /purchase-orders.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchase_order.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase_order.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// CreateSupplier handles POST /suppliers.
func (h *PurchaseOrderHandler) CreateSupplier(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	supplier, err := h.service.CreateSupplier(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "supplier created", supplier)
}

// GetSupplier handles GET /suppliers/:id.
func (h *PurchaseOrderHandler) GetSupplier(c *gin.Context) {
	documentAction(h.BaseHandler, "", h.service.GetSupplier)(c)
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.Now())
	if err != nil {
		h.Error(c, err)
		return
	}
	po, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "purchase order created", po)
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	documentAction(h.BaseHandler, "", h.service.Get)(c)
}

// Send handles POST /purchase-orders/:id/send.
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	documentAction(h.BaseHandler, "purchase order sent", h.service.Send)(c)
}

// Receive handles POST /purchase-orders/:id/receive.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	documentAction(h.BaseHandler, "purchase order received", h.service.MarkReceived)(c)
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	documentAction(h.BaseHandler, "purchase order cancelled", h.service.Cancel)(c)
}

// InvoiceHandler serves /invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.Now())
	if err != nil {
		h.Error(c, err)
		return
	}
	inv, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "invoice created", inv)
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	documentAction(h.BaseHandler, "", h.service.Get)(c)
}

// Issue handles POST /invoices/:id/issue.
func (h *InvoiceHandler) Issue(c *gin.Context) {
	documentAction(h.BaseHandler, "invoice issued", h.service.Issue)(c)
}
