package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
)

type memRepo struct {
	mu    sync.Mutex
	items map[id.ID]Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[id.ID]Appointment)}
}

func (r *memRepo) ListActive(_ context.Context, res Resource, date time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.items {
		if a.Status != StatusCancelled && a.Resource() == res && a.Date.Equal(date) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *memRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = *a
	return nil
}

func (r *memRepo) GetByID(_ context.Context, appointmentID id.ID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[appointmentID]
	if !ok {
		return nil, apperror.NewNotFound("appointment", appointmentID)
	}
	return &a, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, appointmentID id.ID) (*Appointment, error) {
	return r.GetByID(ctx, appointmentID)
}

func (r *memRepo) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = *a
	return nil
}
