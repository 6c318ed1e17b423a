package stock

import (
	"context"
	"sort"
	"sync"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
)

type levelKey struct{ variant, warehouse id.ID }

type memRepo struct {
	mu        sync.Mutex
	levels    map[levelKey]*Level
	movements []Movement
}

func newMemRepo() *memRepo {
	return &memRepo{levels: make(map[levelKey]*Level)}
}

// seed creates a level whose history is a single positive adjustment.
func (r *memRepo) seed(variant, warehouse id.ID, qty int) {
	r.levels[levelKey{variant, warehouse}] = &Level{VariantID: variant, WarehouseID: warehouse, Quantity: qty}
	if qty > 0 {
		r.movements = append(r.movements, Movement{
			ID: id.New(), VariantID: variant, WarehouseID: warehouse,
			MovementType: MovementAdjustmentPositive, Quantity: qty, StockAfter: qty,
		})
	}
}

func (r *memRepo) qty(variant, warehouse id.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels[levelKey{variant, warehouse}].Quantity
}

func (r *memRepo) EnsureLevel(_ context.Context, variantID, warehouseID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := levelKey{variantID, warehouseID}
	if _, ok := r.levels[k]; !ok {
		r.levels[k] = &Level{VariantID: variantID, WarehouseID: warehouseID}
	}
	return nil
}

func (r *memRepo) GetLevel(_ context.Context, variantID, warehouseID id.ID) (*Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.levels[levelKey{variantID, warehouseID}]
	if !ok {
		return nil, apperror.NewNotFound("stock level", variantID)
	}
	cp := *l
	return &cp, nil
}

func (r *memRepo) GetLevelForUpdate(ctx context.Context, variantID, warehouseID id.ID) (*Level, error) {
	return r.GetLevel(ctx, variantID, warehouseID)
}

func (r *memRepo) FirstLevelForUpdate(_ context.Context, variantID id.ID) (*Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first *Level
	for k, l := range r.levels {
		if k.variant == variantID && (first == nil || id.Less(l.WarehouseID, first.WarehouseID)) {
			first = l
		}
	}
	if first == nil {
		return nil, apperror.NewNotFound("stock level", variantID)
	}
	cp := *first
	return &cp, nil
}

func (r *memRepo) ListLevelsByVariant(_ context.Context, variantID id.ID) ([]Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Level
	for k, l := range r.levels {
		if k.variant == variantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memRepo) SetQuantity(_ context.Context, variantID, warehouseID id.ID, quantity int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.levels[levelKey{variantID, warehouseID}]
	l.Quantity = quantity
	l.UpdatedAt = at
	return nil
}

func (r *memRepo) CreateMovements(_ context.Context, movements []Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) GetMovementHistory(_ context.Context, filter MovementFilter) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if filter.VariantID != nil && m.VariantID != *filter.VariantID {
			continue
		}
		if filter.MovementType != nil && m.MovementType != *filter.MovementType {
			continue
		}
		out = append(out, m)
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memRepo) ListMovements(_ context.Context, variantID, warehouseID id.ID) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Movement
	for _, m := range r.movements {
		if m.VariantID == variantID && m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return id.Less(out[i].ID, out[j].ID) })
	return out, nil
}

var _ Repository = (*memRepo)(nil)
