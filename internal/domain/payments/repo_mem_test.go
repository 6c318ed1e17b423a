package payments

import (
	"context"
	"sort"
	"sync"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

type parent struct {
	number    string
	total     types.Money
	paid      types.Money
	pending   types.Money
	status    PaymentStatus
	state     string
	createdAt time.Time
}

type memRepo struct {
	mu       sync.Mutex
	parents  map[Target]*parent
	payments []Payment
}

func newMemRepo() *memRepo {
	return &memRepo{parents: make(map[Target]*parent)}
}

func (r *memRepo) addParent(kind TargetKind, number, total string, createdAt time.Time) Target {
	t := Target{Kind: kind, ID: id.New()}
	r.parents[t] = &parent{
		number:    number,
		total:     types.MustMoney(total),
		paid:      types.Zero(),
		pending:   types.MustMoney(total),
		status:    StatusPending,
		createdAt: createdAt,
	}
	return t
}

func (r *memRepo) LockTarget(_ context.Context, target Target) (Parent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parents[target]
	if !ok {
		return Parent{}, apperror.NewNotFound(string(target.Kind), target.ID)
	}
	return Parent{Total: p.total, Status: p.state}, nil
}

func (r *memRepo) Insert(_ context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, *p)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, paymentID id.ID) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == paymentID {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("payment", paymentID)
}

func (r *memRepo) Delete(_ context.Context, paymentID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.payments {
		if p.ID == paymentID {
			r.payments = append(r.payments[:i], r.payments[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepo) SumForTarget(_ context.Context, target Target) (types.Money, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := types.Zero()
	for _, p := range r.payments {
		if p.Target() == target {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memRepo) ListForTarget(_ context.Context, target Target) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Payment
	for _, p := range r.payments {
		if p.Target() == target {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateOrderBalance(_ context.Context, orderID id.ID, paid, pending types.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.parents[Target{Kind: TargetOrder, ID: orderID}]
	p.paid, p.pending = paid, pending
	return nil
}

func (r *memRepo) UpdateSaleBalance(_ context.Context, saleID id.ID, paid types.Money, status PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.parents[Target{Kind: TargetSale, ID: saleID}]
	p.paid, p.status = paid, status
	p.pending = p.total.Sub(paid)
	return nil
}

func (r *memRepo) latestNext(target Target) *time.Time {
	var latest *Payment
	for i := range r.payments {
		p := &r.payments[i]
		if p.Target() == target && (latest == nil || p.PaymentDate.After(latest.PaymentDate)) {
			latest = p
		}
	}
	if latest == nil {
		return nil
	}
	return latest.NextPaymentDate
}

func (r *memRepo) ListPending(_ context.Context, filter PendingFilter) ([]PendingItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PendingItem
	for t, p := range r.parents {
		if filter.Kind != "" && filter.Kind != t.Kind {
			continue
		}
		if !p.pending.IsPositive() {
			continue
		}
		out = append(out, PendingItem{
			Kind:            t.Kind,
			ID:              t.ID,
			Number:          p.number,
			Total:           p.total,
			TotalPaid:       p.paid,
			TotalPending:    p.pending,
			CreatedAt:       p.createdAt,
			NextPaymentDate: r.latestNext(t),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memRepo) CountOverdue(_ context.Context, today time.Time, since *time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for t, p := range r.parents {
		if !p.pending.IsPositive() {
			continue
		}
		next := r.latestNext(t)
		if next == nil || next.After(today) {
			continue
		}
		if since != nil && !next.After(*since) {
			continue
		}
		n++
	}
	return n, nil
}

var _ Repository = (*memRepo)(nil)
