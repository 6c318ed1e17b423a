package orders

import (
	"context"
	"sort"
	"sync"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu       sync.Mutex
	orders   map[id.ID]Order
	lines    map[id.ID][]Line
	history  []HistoryEntry
	fittings []Fitting
	prefixes map[id.ID]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:   make(map[id.ID]Order),
		lines:    make(map[id.ID][]Line),
		prefixes: make(map[id.ID]string),
	}
}

func (r *memRepo) Create(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := *order
	o.Lines = nil
	r.orders[order.ID] = o
	return nil
}

func (r *memRepo) SaveLines(_ context.Context, orderID id.ID, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[orderID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return &o, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *memRepo) GetLines(_ context.Context, orderID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[orderID]...), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[order.ID]
	o.Status = order.Status
	o.ActualDeliveryDate = order.ActualDeliveryDate
	r.orders[order.ID] = o
	return nil
}

func (r *memRepo) UpdateLineStatus(_ context.Context, lineID id.ID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for orderID, lines := range r.lines {
		for i := range lines {
			if lines[i].ID == lineID {
				r.lines[orderID][i].Status = status
			}
		}
	}
	return nil
}

func (r *memRepo) UpdateAllLineStatuses(_ context.Context, orderID id.ID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines[orderID] {
		r.lines[orderID][i].Status = status
	}
	return nil
}

func (r *memRepo) AddHistory(_ context.Context, entry *HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, *entry)
	return nil
}

func (r *memRepo) ListHistory(_ context.Context, orderID id.ID) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []HistoryEntry
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memRepo) StoreOrderPrefix(_ context.Context, storeID id.ID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefixes[storeID], nil
}

func (r *memRepo) MaxFittingNumber(_ context.Context, orderID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, f := range r.fittings {
		if f.OrderID == orderID && f.FittingNumber > max {
			max = f.FittingNumber
		}
	}
	return max, nil
}

func (r *memRepo) CreateFitting(_ context.Context, fitting *Fitting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fittings = append(r.fittings, *fitting)
	return nil
}

func (r *memRepo) ListFittings(_ context.Context, orderID id.ID) ([]Fitting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Fitting
	for _, f := range r.fittings {
		if f.OrderID == orderID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FittingNumber < out[j].FittingNumber })
	return out, nil
}

var _ Repository = (*memRepo)(nil)
