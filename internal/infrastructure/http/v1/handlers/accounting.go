package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	"atelier/internal/domain/accounting"
)

// AccountingHandler serves /accounting.
type AccountingHandler struct {
	*BaseHandler
	service *accounting.Service
}

// NewAccountingHandler creates a new accounting handler.
func NewAccountingHandler(base *BaseHandler, service *accounting.Service) *AccountingHandler {
	return &AccountingHandler{BaseHandler: base, service: service}
}

// TrialBalance handles GET /accounting/trial-balance.
func (h *AccountingHandler) TrialBalance(c *gin.Context) {
	tb, err := h.service.TrialBalance(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", tb)
}

// GetEntry handles GET /accounting/entries/:id.
func (h *AccountingHandler) GetEntry(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", entry)
}

// Post handles POST /accounting/post/:source_type/:id. Posting is
// idempotent, so it doubles as a manual retry of a failed event.
func (h *AccountingHandler) Post(c *gin.Context) {
	sourceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		entry *accounting.Entry
		err   error
	)
	switch accounting.SourceType(c.Param("source_type")) {
	case accounting.SourceSale:
		entry, err = h.service.PostSaleEntry(ctx, sourceID)
	case accounting.SourcePurchase:
		entry, err = h.service.PostPurchaseEntry(ctx, sourceID)
	case accounting.SourceOnlineOrder:
		entry, err = h.service.PostOnlineOrderEntry(ctx, sourceID)
	case accounting.SourceInvoice:
		entry, err = h.service.PostInvoiceEntry(ctx, sourceID)
	default:
		err = apperror.NewValidation("unknown source type").WithDetail("source_type", c.Param("source_type"))
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "journal entry posted", entry)
}
