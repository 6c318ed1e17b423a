package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/domain/orders"
	"atelier/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves /orders.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "order created", order)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.Get(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", order)
}

// ChangeStatus handles POST /orders/:id/status.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.ChangeStatus(c.Request.Context(), req.ToInput(orderID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "status changed", order)
}

// ScheduleFitting handles POST /orders/:id/fittings.
func (h *OrderHandler) ScheduleFitting(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.ScheduleFittingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	fitting, err := h.service.ScheduleFitting(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "fitting scheduled", fitting)
}

// Fittings handles GET /orders/:id/fittings.
func (h *OrderHandler) Fittings(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	fittings, err := h.service.Fittings(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", fittings)
}

// History handles GET /orders/:id/history.
func (h *OrderHandler) History(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", history)
}
