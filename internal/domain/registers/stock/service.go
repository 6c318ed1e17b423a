package stock

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/pkg/logger"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// MovedPayload is the outbox payload of events.StockMoved.
type MovedPayload struct {
	Movements []Movement `json:"movements"`
}

// Service provides business operations for the stock ledger.
//
// Every mutation locks the affected level rows, checks the resulting
// quantity and appends movements in one transaction. Callers that already
// run a transaction (sale completion) join it through ctx.
type Service struct {
	repo      Repository
	txManager tx.Manager
	events    events.Publisher
	now       func() time.Time
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		events:    publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AdjustStock applies a manual correction, provisioning the level row when
// missing. A decrease below zero fails with NEGATIVE_STOCK and changes nothing.
func (s *Service) AdjustStock(ctx context.Context, in AdjustInput) (*Movement, error) {
	if id.IsNil(in.VariantID) || id.IsNil(in.WarehouseID) {
		return nil, apperror.NewValidation("variant and warehouse are required")
	}
	if in.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("quantity", in.Quantity)
	}

	var (
		delta int
		kind  MovementType
	)
	switch in.Direction {
	case DirectionIncrease:
		delta, kind = in.Quantity, MovementAdjustmentPositive
	case DirectionDecrease:
		delta, kind = -in.Quantity, MovementAdjustmentNegative
	default:
		return nil, apperror.NewValidation("direction must be increase or decrease").
			WithDetail("direction", in.Direction)
	}

	var movement Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureLevel(ctx, in.VariantID, in.WarehouseID); err != nil {
			return fmt.Errorf("ensure level: %w", err)
		}
		level, err := s.repo.GetLevelForUpdate(ctx, in.VariantID, in.WarehouseID)
		if err != nil {
			return err
		}

		movement, err = s.apply(ctx, level, delta, kind, in.Reason, nil, nil)
		if err != nil {
			return err
		}
		if err := s.repo.CreateMovements(ctx, []Movement{movement}); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}
		return s.publish(ctx, in.VariantID, movement)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted",
		"variant_id", in.VariantID,
		"warehouse_id", in.WarehouseID,
		"delta", delta,
		"stock_after", movement.StockAfter)

	return &movement, nil
}

// TransferStock moves units between two existing levels of one variant.
// Rows are locked in warehouse-id order so concurrent opposite transfers
// cannot deadlock.
func (s *Service) TransferStock(ctx context.Context, in TransferInput) (*Transfer, error) {
	if id.IsNil(in.VariantID) || id.IsNil(in.From) || id.IsNil(in.To) {
		return nil, apperror.NewValidation("variant and both warehouses are required")
	}
	if in.From == in.To {
		return nil, apperror.NewValidation("source and destination warehouses must differ")
	}
	if in.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("quantity", in.Quantity)
	}

	transfer := &Transfer{ID: id.New()}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		first, second := in.From, in.To
		if id.Less(second, first) {
			first, second = second, first
		}
		locked := make(map[id.ID]*Level, 2)
		for _, wh := range []id.ID{first, second} {
			level, err := s.repo.GetLevelForUpdate(ctx, in.VariantID, wh)
			if err != nil {
				return err
			}
			locked[wh] = level
		}

		var err error
		transfer.Out, err = s.apply(ctx, locked[in.From], -in.Quantity, MovementTransferOut, in.Reason, nil, &transfer.ID)
		if err != nil {
			return err
		}
		transfer.In, err = s.apply(ctx, locked[in.To], in.Quantity, MovementTransferIn, in.Reason, nil, &transfer.ID)
		if err != nil {
			return err
		}

		if err := s.repo.CreateMovements(ctx, []Movement{transfer.Out, transfer.In}); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}
		return s.publish(ctx, in.VariantID, transfer.Out, transfer.In)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transferred",
		"transfer_id", transfer.ID,
		"variant_id", in.VariantID,
		"from", in.From,
		"to", in.To,
		"quantity", in.Quantity)

	return transfer, nil
}

// DecrementForSale removes sold units. Each line takes the level in the
// sale's warehouse when warehouseID is set and the row exists, otherwise
// the variant's level with the lowest warehouse id. Decrements stop at
// zero; the movement records the delta actually applied. Variants without
// any level are skipped.
func (s *Service) DecrementForSale(ctx context.Context, saleID id.ID, warehouseID *id.ID, lines []SaleLine) ([]Movement, error) {
	merged := mergeLines(lines)

	var movements []Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range merged {
			level, err := s.saleLevel(ctx, line.VariantID, warehouseID)
			if err != nil {
				return err
			}
			if level == nil {
				logger.Warn(ctx, "sold variant has no stock level",
					"sale_id", saleID,
					"variant_id", line.VariantID)
				continue
			}

			take := line.Quantity
			if take > level.Quantity {
				logger.Warn(ctx, "sale exceeds stock, decrement floored at zero",
					"sale_id", saleID,
					"variant_id", line.VariantID,
					"warehouse_id", level.WarehouseID,
					"requested", line.Quantity,
					"available", level.Quantity)
				take = level.Quantity
			}
			if take == 0 {
				continue
			}

			m, err := s.apply(ctx, level, -take, MovementSale, "sale", &saleID, nil)
			if err != nil {
				return err
			}
			movements = append(movements, m)
		}

		if len(movements) == 0 {
			return nil
		}
		if err := s.repo.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}
		return s.publish(ctx, saleID, movements...)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock decremented for sale",
		"sale_id", saleID,
		"movements", len(movements))

	return movements, nil
}

func (s *Service) saleLevel(ctx context.Context, variantID id.ID, warehouseID *id.ID) (*Level, error) {
	if warehouseID != nil {
		level, err := s.repo.GetLevelForUpdate(ctx, variantID, *warehouseID)
		if err == nil {
			return level, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}
	}
	level, err := s.repo.FirstLevelForUpdate(ctx, variantID)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	return level, err
}

// mergeLines sums quantities per variant and orders the result by variant
// id, which is also the lock order.
func mergeLines(lines []SaleLine) []SaleLine {
	byVariant := make(map[id.ID]int, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			byVariant[l.VariantID] += l.Quantity
		}
	}
	out := make([]SaleLine, 0, len(byVariant))
	for v, q := range byVariant {
		out = append(out, SaleLine{VariantID: v, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return id.Less(out[i].VariantID, out[j].VariantID) })
	return out
}

// apply checks and writes a delta on a locked level and returns the
// movement describing it. The movement is not persisted.
func (s *Service) apply(
	ctx context.Context,
	level *Level,
	delta int,
	kind MovementType,
	reason string,
	referenceID, transferID *id.ID,
) (Movement, error) {
	before := level.Quantity
	after := before + delta
	if after < 0 {
		return Movement{}, apperror.NewNegativeStock(
			level.VariantID.String(),
			level.WarehouseID.String(),
			strconv.Itoa(before),
			strconv.Itoa(-delta),
		)
	}

	now := s.now().UTC()
	if err := s.repo.SetQuantity(ctx, level.VariantID, level.WarehouseID, after, now); err != nil {
		return Movement{}, fmt.Errorf("set quantity: %w", err)
	}
	level.Quantity = after
	level.UpdatedAt = now

	return Movement{
		ID:           id.New(),
		VariantID:    level.VariantID,
		WarehouseID:  level.WarehouseID,
		MovementType: kind,
		Quantity:     delta,
		StockBefore:  before,
		StockAfter:   after,
		Reason:       reason,
		ReferenceID:  referenceID,
		TransferID:   transferID,
		Actor:        appctx.GetActorID(ctx),
		CreatedAt:    now,
	}, nil
}

func (s *Service) publish(ctx context.Context, aggregateID id.ID, movements ...Movement) error {
	err := s.events.Publish(ctx, events.Event{
		AggregateType: events.AggregateStockLevel,
		AggregateID:   aggregateID,
		Type:          events.StockMoved,
		Payload:       MovedPayload{Movements: movements},
	})
	if err != nil {
		return fmt.Errorf("publish stock moved: %w", err)
	}
	return nil
}

// GetLevel returns one level.
func (s *Service) GetLevel(ctx context.Context, variantID, warehouseID id.ID) (*Level, error) {
	return s.repo.GetLevel(ctx, variantID, warehouseID)
}

// ListLevelsByVariant returns a variant's levels across warehouses.
func (s *Service) ListLevelsByVariant(ctx context.Context, variantID id.ID) ([]Level, error) {
	return s.repo.ListLevelsByVariant(ctx, variantID)
}

// GetMovementHistory returns movements, newest first.
func (s *Service) GetMovementHistory(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.MovementType != nil && !filter.MovementType.Valid() {
		return nil, apperror.NewValidation("unknown movement type").WithDetail("movement_type", *filter.MovementType)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.GetMovementHistory(ctx, filter)
}

// Reconcile replays a level's movements in creation order and compares the
// result with the stored quantity.
func (s *Service) Reconcile(ctx context.Context, variantID, warehouseID id.ID) (*ReconcileReport, error) {
	level, err := s.repo.GetLevel(ctx, variantID, warehouseID)
	if err != nil {
		return nil, err
	}
	movements, err := s.repo.ListMovements(ctx, variantID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	report := &ReconcileReport{
		VariantID:   variantID,
		WarehouseID: warehouseID,
		Recorded:    level.Quantity,
		Movements:   len(movements),
	}
	running := 0
	for _, m := range movements {
		if m.StockBefore != running || m.StockAfter != m.StockBefore+m.Quantity {
			report.Broken++
		}
		running += m.Quantity
	}
	report.Replayed = running
	report.Drift = level.Quantity - running

	if !report.Consistent() {
		logger.Warn(ctx, "stock level drift",
			"variant_id", variantID,
			"warehouse_id", warehouseID,
			"drift", report.Drift,
			"broken", report.Broken)
	}
	return report, nil
}
