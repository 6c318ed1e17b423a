// Package schedule_repo provides the PostgreSQL implementation of
// scheduling.Repository.
package schedule_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/id"
	"atelier/internal/domain/scheduling"
	"atelier/internal/infrastructure/storage/postgres"
)

const appointmentsTable = "appointments"

// AppointmentRepo implements scheduling.Repository.
type AppointmentRepo struct {
	postgres.Repo
	cols []string
}

// NewAppointmentRepo creates a new appointment repository.
func NewAppointmentRepo(txm *postgres.TxManager) *AppointmentRepo {
	return &AppointmentRepo{
		Repo: postgres.NewRepo(txm),
		cols: postgres.Columns[scheduling.Appointment](),
	}
}

var _ scheduling.Repository = (*AppointmentRepo)(nil)

// resourceFilter matches the calendar of res: a tailor's own bookings, or
// the store bookings that have no tailor.
func resourceFilter(res scheduling.Resource) squirrel.Sqlizer {
	if res.Kind == scheduling.ResourceTailor {
		return squirrel.Eq{"tailor_id": res.ID}
	}
	return squirrel.And{squirrel.Eq{"store_id": res.ID}, squirrel.Eq{"tailor_id": nil}}
}

func (r *AppointmentRepo) listActiveQuery(res scheduling.Resource, date time.Time) squirrel.SelectBuilder {
	return r.SQ().
		Select(r.cols...).
		From(appointmentsTable).
		Where(resourceFilter(res)).
		Where(squirrel.Eq{"appointment_date": date}).
		Where(squirrel.NotEq{"status": scheduling.StatusCancelled}).
		OrderBy("start_time")
}

// ListActive returns the non-cancelled appointments of res on date.
func (r *AppointmentRepo) ListActive(ctx context.Context, res scheduling.Resource, date time.Time) ([]scheduling.Appointment, error) {
	var out []scheduling.Appointment
	if err := r.Select(ctx, &out, r.listActiveQuery(res, date)); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// Create inserts an appointment.
func (r *AppointmentRepo) Create(ctx context.Context, a *scheduling.Appointment) error {
	return r.Insert(ctx, appointmentsTable, a)
}

// GetByID returns an appointment.
func (r *AppointmentRepo) GetByID(ctx context.Context, appointmentID id.ID) (*scheduling.Appointment, error) {
	return r.get(ctx, appointmentID, "")
}

// GetForUpdate returns an appointment and locks its row.
func (r *AppointmentRepo) GetForUpdate(ctx context.Context, appointmentID id.ID) (*scheduling.Appointment, error) {
	return r.get(ctx, appointmentID, "FOR UPDATE")
}

func (r *AppointmentRepo) get(ctx context.Context, appointmentID id.ID, suffix string) (*scheduling.Appointment, error) {
	q := r.SQ().Select(r.cols...).From(appointmentsTable).Where(squirrel.Eq{"id": appointmentID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	var a scheduling.Appointment
	if err := r.Get(ctx, &a, q, "appointment", appointmentID); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update persists date, times, status and notes.
func (r *AppointmentRepo) Update(ctx context.Context, a *scheduling.Appointment) error {
	_, err := r.Exec(ctx, r.SQ().Update(appointmentsTable).
		Set("appointment_date", a.Date).
		Set("start_time", a.StartTime).
		Set("end_time", a.EndTime).
		Set("status", a.Status).
		Set("notes", a.Notes).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID}))
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}
