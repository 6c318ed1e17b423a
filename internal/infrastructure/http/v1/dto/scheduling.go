package dto

import (
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/domain/scheduling"
)

// BookAppointmentRequest is the body of POST /appointments. Either
// end_time or duration_minutes must be given.
type BookAppointmentRequest struct {
	Date            string          `json:"date" binding:"required"`
	StartTime       string          `json:"start_time" binding:"required"`
	EndTime         string          `json:"end_time"`
	DurationMinutes int             `json:"duration_minutes" binding:"min=0"`
	StoreID         id.ID           `json:"store_id" binding:"required"`
	TailorID        *id.ID          `json:"tailor_id"`
	ClientID        *id.ID          `json:"client_id"`
	OrderID         *id.ID          `json:"order_id"`
	Kind            scheduling.Kind `json:"kind" binding:"required"`
	Notes           string          `json:"notes" binding:"max=2000"`
}

// ToInput converts the request to the domain input.
func (r BookAppointmentRequest) ToInput() (scheduling.BookInput, error) {
	date, err := parseDate("date", r.Date, time.Time{})
	if err != nil {
		return scheduling.BookInput{}, err
	}
	return scheduling.BookInput{
		Date:            date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationMinutes: r.DurationMinutes,
		StoreID:         r.StoreID,
		TailorID:        r.TailorID,
		ClientID:        r.ClientID,
		OrderID:         r.OrderID,
		Kind:            r.Kind,
		Notes:           r.Notes,
	}, nil
}

// MoveAppointmentRequest is the body of PUT /appointments/:id/move.
type MoveAppointmentRequest struct {
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"start_time" binding:"required"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes" binding:"min=0"`
}

// ToInput converts the request to the domain input.
func (r MoveAppointmentRequest) ToInput(appointmentID id.ID) (scheduling.MoveInput, error) {
	date, err := parseDate("date", r.Date, time.Time{})
	if err != nil {
		return scheduling.MoveInput{}, err
	}
	return scheduling.MoveInput{
		ID:              appointmentID,
		Date:            date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationMinutes: r.DurationMinutes,
	}, nil
}

// AvailabilityQuery is the query of GET /appointments/availability.
// The tailor calendar is used when tailor_id is given.
type AvailabilityQuery struct {
	Date        string `form:"date" binding:"required"`
	StoreID     string `form:"store_id"`
	TailorID    string `form:"tailor_id"`
	SlotMinutes int    `form:"slot_minutes" binding:"omitempty,min=5,max=240"`
}

// Resource returns the calendar the query asks about.
func (q AvailabilityQuery) Resource() (scheduling.Resource, error) {
	tailorID, err := parseOptionalID("tailor_id", q.TailorID)
	if err != nil {
		return scheduling.Resource{}, err
	}
	storeID, err := parseOptionalID("store_id", q.StoreID)
	if err != nil {
		return scheduling.Resource{}, err
	}
	if storeID == nil && tailorID == nil {
		return scheduling.Resource{}, apperror.NewValidation("store_id or tailor_id is required")
	}
	if storeID == nil {
		storeID = &id.ID{}
	}
	return scheduling.ResourceFor(*storeID, tailorID), nil
}

// Day parses the requested date.
func (q AvailabilityQuery) Day() (time.Time, error) {
	return parseDate("date", q.Date, time.Time{})
}
