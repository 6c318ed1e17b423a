package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/id"
	"atelier/internal/domain/scheduling"
	"atelier/internal/infrastructure/http/v1/dto"
)

// AppointmentHandler serves /appointments.
type AppointmentHandler struct {
	*BaseHandler
	service *scheduling.Service
}

// NewAppointmentHandler creates a new appointment handler.
func NewAppointmentHandler(base *BaseHandler, service *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{BaseHandler: base, service: service}
}

// Book handles POST /appointments.
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req dto.BookAppointmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	appt, err := h.service.Book(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, "appointment booked", appt)
}

// Move handles PUT /appointments/:id/move.
func (h *AppointmentHandler) Move(c *gin.Context) {
	apptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.MoveAppointmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(apptID)
	if err != nil {
		h.Error(c, err)
		return
	}

	appt, err := h.service.Move(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "appointment moved", appt)
}

// Cancel handles POST /appointments/:id/cancel.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.close(c, "appointment cancelled", h.service.Cancel)
}

// Complete handles POST /appointments/:id/complete.
func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.close(c, "appointment completed", h.service.Complete)
}

// NoShow handles POST /appointments/:id/no-show.
func (h *AppointmentHandler) NoShow(c *gin.Context) {
	h.close(c, "appointment marked as no-show", h.service.MarkNoShow)
}

func (h *AppointmentHandler) close(c *gin.Context, message string, op func(ctx context.Context, apptID id.ID) (*scheduling.Appointment, error)) {
	apptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	appt, err := op(c.Request.Context(), apptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, message, appt)
}

// Get handles GET /appointments/:id.
func (h *AppointmentHandler) Get(c *gin.Context) {
	apptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	appt, err := h.service.Get(c.Request.Context(), apptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", appt)
}

// List handles GET /appointments?date=&store_id=&tailor_id=.
func (h *AppointmentHandler) List(c *gin.Context) {
	var q dto.AvailabilityQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, day, ok := h.calendar(c, q)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), res, day)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", list)
}

// Availability handles GET /appointments/availability.
func (h *AppointmentHandler) Availability(c *gin.Context) {
	var q dto.AvailabilityQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, day, ok := h.calendar(c, q)
	if !ok {
		return
	}
	slots, err := h.service.Availability(c.Request.Context(), res, day, q.SlotMinutes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, "", slots)
}

func (h *AppointmentHandler) calendar(c *gin.Context, q dto.AvailabilityQuery) (scheduling.Resource, time.Time, bool) {
	res, err := q.Resource()
	if err != nil {
		h.Error(c, err)
		return scheduling.Resource{}, time.Time{}, false
	}
	day, err := q.Day()
	if err != nil {
		h.Error(c, err)
		return scheduling.Resource{}, time.Time{}, false
	}
	return res, day, true
}
