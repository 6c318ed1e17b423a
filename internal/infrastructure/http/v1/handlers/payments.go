package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/payments"
	"atelier/internal/infrastructure/http/v1/dto"
)

// PaymentHandler serves /payments.
type PaymentHandler struct {
	*BaseHandler
	service *payments.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service *payments.Service) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service}
}

// Add handles POST /payments.
func (h *PaymentHandler) Add(c *gin.Context) {
	var req dto.AddPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.Now())
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.AddPayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "payment recorded", result)
}

// Delete handles DELETE /payments/:id.
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.DeletePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "payment deleted", result)
}

// List handles GET /payments?target_kind=&target_id=.
func (h *PaymentHandler) List(c *gin.Context) {
	kind := payments.TargetKind(c.Query("target_kind"))
	targetID, err := id.Parse(c.Query("target_id"))
	if !kind.Valid() || err != nil {
		h.Error(c, apperror.NewValidation("target_kind and target_id are required"))
		return
	}

	list, err := h.service.ListPayments(c.Request.Context(), payments.Target{Kind: kind, ID: targetID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", list)
}

// Pending handles GET /payments/pending.
func (h *PaymentHandler) Pending(c *gin.Context) {
	var q dto.PendingPaymentsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	items, err := h.service.GetPendingPayments(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", items)
}

// OverdueCount handles GET /payments/overdue-count?since=YYYY-MM-DD.
func (h *PaymentHandler) OverdueCount(c *gin.Context) {
	since, err := types.ParseOptionalDate(c.Query("since"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid since date").WithDetail("value", c.Query("since")))
		return
	}
	n, err := h.service.GetOverduePaymentsCount(c.Request.Context(), since)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", dto.OverdueCountResponse{Count: n})
}
