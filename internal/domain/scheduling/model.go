package scheduling

import (
	"fmt"
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Status of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
	StatusCancelled Status = "cancelled"
)

// Kind of appointment.
type Kind string

const (
	KindFitting      Kind = "fitting"
	KindMeasurement  Kind = "measurement"
	KindConsultation Kind = "consultation"
	KindDelivery     Kind = "delivery"
	KindOther        Kind = "other"
)

// Appointment occupies [StartTime, EndTime) on Date for its resource.
type Appointment struct {
	ID        id.ID     `db:"id"`
	Date      time.Time `db:"appointment_date"`
	StartTime TimeOfDay `db:"start_time"`
	EndTime   TimeOfDay `db:"end_time"`
	StoreID   id.ID     `db:"store_id"`
	TailorID  *id.ID    `db:"tailor_id"`
	ClientID  *id.ID    `db:"client_id"`
	OrderID   *id.ID    `db:"order_id"`
	Kind      Kind      `db:"kind"`
	Status    Status    `db:"status"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Interval returns the occupied time range.
func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

// Resource returns the calendar the appointment belongs to.
func (a *Appointment) Resource() Resource {
	return ResourceFor(a.StoreID, a.TailorID)
}

// ResourceKind tells which calendar a booking competes in.
type ResourceKind string

const (
	ResourceTailor ResourceKind = "tailor"
	ResourceStore  ResourceKind = "store"
)

// Resource is a bookable calendar. Appointments with a tailor compete in
// that tailor's calendar; appointments without one compete in their
// store's shared calendar.
type Resource struct {
	Kind ResourceKind
	ID   id.ID
}

// ResourceFor picks the tailor calendar when tailorID is set.
func ResourceFor(storeID id.ID, tailorID *id.ID) Resource {
	if tailorID != nil && !id.IsNil(*tailorID) {
		return Resource{Kind: ResourceTailor, ID: *tailorID}
	}
	return Resource{Kind: ResourceStore, ID: storeID}
}

// LockKey identifies the (resource, date) pair serialized during booking.
func (r Resource) LockKey(date time.Time) string {
	return fmt.Sprintf("schedule:%s:%s:%s", r.Kind, r.ID, types.FormatDate(date))
}

// Slot is one cell of the availability grid.
type Slot struct {
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
	Available bool      `json:"available"`
}

// BookInput requests a new appointment. Either EndTime or DurationMinutes
// must be given; the duration wins when both are.
type BookInput struct {
	Date            time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
	StoreID         id.ID `validate:"required"`
	TailorID        *id.ID
	ClientID        *id.ID
	OrderID         *id.ID
	Kind            Kind `validate:"required,oneof=fitting measurement consultation delivery other"`
	Notes           string `validate:"max=2000"`
}

// MoveInput reschedules an appointment. Without EndTime or DurationMinutes
// the original duration is kept.
type MoveInput struct {
	ID              id.ID
	Date            time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
}
