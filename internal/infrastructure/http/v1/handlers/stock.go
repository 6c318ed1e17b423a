package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/domain/registers/stock"
	"atelier/internal/infrastructure/http/v1/dto"
)

// StockHandler serves /stock.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Adjust handles POST /stock/adjust.
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.service.AdjustStock(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "stock adjusted", movement)
}

// Transfer handles POST /stock/transfer.
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	transfer, err := h.service.TransferStock(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "stock transferred", transfer)
}

// Movements handles GET /stock/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	var q dto.MovementsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	movements, err := h.service.GetMovementHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", movements)
}

// Levels handles GET /stock/levels/:variant_id.
func (h *StockHandler) Levels(c *gin.Context) {
	variantID, ok := h.ParamID(c, "variant_id")
	if !ok {
		return
	}
	levels, err := h.service.ListLevelsByVariant(c.Request.Context(), variantID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", levels)
}

// Reconcile handles GET /stock/levels/:variant_id/:warehouse_id/reconcile.
func (h *StockHandler) Reconcile(c *gin.Context) {
	variantID, ok := h.ParamID(c, "variant_id")
	if !ok {
		return
	}
	warehouseID, ok := h.ParamID(c, "warehouse_id")
	if !ok {
		return
	}
	report, err := h.service.Reconcile(c.Request.Context(), variantID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", report)
}
