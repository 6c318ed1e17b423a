package scheduling

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/lock"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/pkg/logger"
)

// Config bounds the availability grid.
type Config struct {
	Open        TimeOfDay
	Close       TimeOfDay
	SlotMinutes int
}

// DefaultConfig is a 10:00-20:00 day in 30 minute slots.
func DefaultConfig() Config {
	return Config{
		Open:        MustTimeOfDay("10:00"),
		Close:       MustTimeOfDay("20:00"),
		SlotMinutes: 30,
	}
}

// Service books, moves and closes appointments.
//
// Conflict check and write run under a lock on (resource, date), so two
// concurrent bookings of one slot cannot both succeed.
type Service struct {
	repo      Repository
	txManager tx.Manager
	locker    lock.Locker
	cfg       Config
	now       func() time.Time
}

// NewService creates a new scheduling service.
func NewService(repo Repository, txManager tx.Manager, locker lock.Locker, cfg Config) *Service {
	if cfg.SlotMinutes == 0 {
		cfg.SlotMinutes = DefaultConfig().SlotMinutes
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		locker:    locker,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FindConflicts returns the active appointments of res on date that
// overlap interval. exclude skips one appointment, used when moving it.
func (s *Service) FindConflicts(
	ctx context.Context,
	res Resource,
	date time.Time,
	interval Interval,
	exclude *id.ID,
) ([]Appointment, error) {
	existing, err := s.repo.ListActive(ctx, res, types.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	var conflicts []Appointment
	for _, a := range existing {
		if a.Status == StatusCancelled {
			continue
		}
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if a.Interval().Overlaps(interval) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts, nil
}

// Book creates an appointment if its resource is free for the interval.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperror.NewValidation("appointment date is required").WithDetail("field", "date")
	}
	interval, err := ResolveInterval(in.StartTime, in.EndTime, in.DurationMinutes)
	if err != nil {
		return nil, err
	}

	date := types.DateOf(in.Date)
	now := s.now().UTC()
	appt := &Appointment{
		ID:        id.New(),
		Date:      date,
		StartTime: interval.Start,
		EndTime:   interval.End,
		StoreID:   in.StoreID,
		TailorID:  in.TailorID,
		ClientID:  in.ClientID,
		OrderID:   in.OrderID,
		Kind:      in.Kind,
		Status:    StatusScheduled,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := appt.Resource()

	err = s.locker.WithLock(ctx, res.LockKey(date), func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.ensureFree(ctx, res, date, interval, nil); err != nil {
				return err
			}
			return s.repo.Create(ctx, appt)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "appointment booked",
		"id", appt.ID,
		"resource", res.LockKey(date),
		"start", appt.StartTime,
		"end", appt.EndTime)

	return appt, nil
}

// Move reschedules a scheduled appointment. The appointment itself is
// ignored when checking for conflicts.
func (s *Service) Move(ctx context.Context, in MoveInput) (*Appointment, error) {
	if in.Date.IsZero() {
		return nil, apperror.NewValidation("appointment date is required").WithDetail("field", "date")
	}

	current, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	duration := in.DurationMinutes
	if duration == 0 && in.EndTime == "" {
		duration = current.Interval().Minutes()
	}
	interval, err := ResolveInterval(in.StartTime, in.EndTime, duration)
	if err != nil {
		return nil, err
	}

	date := types.DateOf(in.Date)
	res := current.Resource()

	var appt *Appointment
	err = s.locker.WithLock(ctx, res.LockKey(date), func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			appt, err = s.repo.GetForUpdate(ctx, in.ID)
			if err != nil {
				return err
			}
			if appt.Status != StatusScheduled {
				return apperror.NewValidation("only scheduled appointments can be moved").
					WithDetail("status", appt.Status)
			}
			if err := s.ensureFree(ctx, res, date, interval, &appt.ID); err != nil {
				return err
			}

			appt.Date = date
			appt.StartTime = interval.Start
			appt.EndTime = interval.End
			appt.UpdatedAt = s.now().UTC()
			return s.repo.Update(ctx, appt)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "appointment moved",
		"id", appt.ID,
		"date", types.FormatDate(date),
		"start", appt.StartTime,
		"end", appt.EndTime)

	return appt, nil
}

func (s *Service) ensureFree(ctx context.Context, res Resource, date time.Time, interval Interval, exclude *id.ID) error {
	conflicts, err := s.FindConflicts(ctx, res, date, interval, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = c.ID.String()
	}
	return apperror.NewScheduleConflict(ids).
		WithDetail("start", interval.Start.String()).
		WithDetail("end", interval.End.String())
}

// Cancel frees the appointment's slot.
func (s *Service) Cancel(ctx context.Context, appointmentID id.ID) (*Appointment, error) {
	return s.close(ctx, appointmentID, StatusCancelled)
}

// Complete marks a scheduled appointment as attended.
func (s *Service) Complete(ctx context.Context, appointmentID id.ID) (*Appointment, error) {
	return s.close(ctx, appointmentID, StatusCompleted)
}

// MarkNoShow marks a scheduled appointment the client missed.
func (s *Service) MarkNoShow(ctx context.Context, appointmentID id.ID) (*Appointment, error) {
	return s.close(ctx, appointmentID, StatusNoShow)
}

func (s *Service) close(ctx context.Context, appointmentID id.ID, to Status) (*Appointment, error) {
	var appt *Appointment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		appt, err = s.repo.GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt.Status != StatusScheduled {
			return apperror.NewValidation("appointment is not scheduled").
				WithDetail("status", appt.Status).
				WithDetail("to", to)
		}
		appt.Status = to
		appt.UpdatedAt = s.now().UTC()
		return s.repo.Update(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "appointment closed", "id", appt.ID, "status", to)
	return appt, nil
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, appointmentID id.ID) (*Appointment, error) {
	return s.repo.GetByID(ctx, appointmentID)
}

// List returns the active appointments of a resource on a date.
func (s *Service) List(ctx context.Context, res Resource, date time.Time) ([]Appointment, error) {
	return s.repo.ListActive(ctx, res, types.DateOf(date))
}

// Availability splits the opening hours into slots of slotMinutes (30 or
// 60, zero means the configured default) and flags those that overlap no
// active appointment.
func (s *Service) Availability(ctx context.Context, res Resource, date time.Time, slotMinutes int) ([]Slot, error) {
	if slotMinutes == 0 {
		slotMinutes = s.cfg.SlotMinutes
	}
	if slotMinutes != 30 && slotMinutes != 60 {
		return nil, apperror.NewValidation("slot length must be 30 or 60 minutes").
			WithDetail("slot_minutes", slotMinutes)
	}

	existing, err := s.repo.ListActive(ctx, res, types.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	var slots []Slot
	for start := s.cfg.Open; int(start)+slotMinutes <= int(s.cfg.Close); start += TimeOfDay(slotMinutes) {
		slot := Interval{Start: start, End: start + TimeOfDay(slotMinutes)}
		free := true
		for _, a := range existing {
			if a.Status != StatusCancelled && a.Interval().Overlaps(slot) {
				free = false
				break
			}
		}
		slots = append(slots, Slot{Start: slot.Start, End: slot.End, Available: free})
	}
	return slots, nil
}
