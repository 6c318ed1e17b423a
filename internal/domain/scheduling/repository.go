package scheduling

import (
	"context"
	"time"

	"atelier/internal/core/id"
)

// Repository persists appointments.
type Repository interface {
	// ListActive returns the non-cancelled appointments of a resource on a
	// date, ordered by start time.
	ListActive(ctx context.Context, res Resource, date time.Time) ([]Appointment, error)

	Create(ctx context.Context, a *Appointment) error

	// GetByID returns the appointment or NOT_FOUND.
	GetByID(ctx context.Context, appointmentID id.ID) (*Appointment, error)

	// GetForUpdate locks the appointment row until the transaction ends.
	GetForUpdate(ctx context.Context, appointmentID id.ID) (*Appointment, error)

	// Update persists date, times, status and notes.
	Update(ctx context.Context, a *Appointment) error
}
