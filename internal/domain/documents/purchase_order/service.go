package purchase_order

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/pkg/logger"
)

const (
	NumberPrefix = "PC"
	NumberTable  = "purchase_orders"
	NumberField  = "po_number"

	SupplierPrefix = "PROV"
	SupplierTable  = "suppliers"
	SupplierField  = "supplier_code"
)

// Service provides business operations for suppliers and purchase orders.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	events    events.Publisher
	hooks     *domain.HookRegistry[*PurchaseOrder]
	now       func() time.Time
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	numerator numerator.Generator,
	publisher events.Publisher,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: numerator,
		events:    publisher,
		hooks:     domain.NewHookRegistry[*PurchaseOrder](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*PurchaseOrder] {
	return s.hooks
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateSupplier registers a supplier under the next PROV code.
func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error) {
	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	supplier := &Supplier{
		ID:        id.New(),
		Name:      in.Name,
		TaxID:     in.TaxID,
		Email:     in.Email,
		CreatedAt: now,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.numerator.NextNumber(ctx, numerator.PlainConfig(SupplierTable, SupplierField, SupplierPrefix), now)
		if err != nil {
			return fmt.Errorf("generate supplier code: %w", err)
		}
		supplier.Code = code
		return s.repo.CreateSupplier(ctx, supplier)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "supplier created", "id", supplier.ID, "code", supplier.Code)
	return supplier, nil
}

// GetSupplier returns one supplier.
func (s *Service) GetSupplier(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetSupplier(ctx, supplierID)
}

// Create drafts a purchase order with input VAT at the fixed rate.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}
	for i, l := range in.Lines {
		if err := domain.RequireNonNegative("unit_cost", l.UnitCost); err != nil {
			return nil, err.(*apperror.AppError).WithDetail("line", i+1)
		}
	}

	now := s.now().UTC()
	po := &PurchaseOrder{
		ID:         id.New(),
		SupplierID: in.SupplierID,
		OrderDate:  types.DateOf(now),
		Status:     StatusDraft,
		Notes:      in.Notes,
		CreatedAt:  now,
	}
	if !in.OrderDate.IsZero() {
		po.OrderDate = types.DateOf(in.OrderDate)
	}

	po.Lines = make([]Line, len(in.Lines))
	totals := make([]types.Money, len(in.Lines))
	for i, l := range in.Lines {
		totals[i] = types.Round2(l.UnitCost.Mul(types.FromInt(l.Quantity)))
		po.Lines[i] = Line{
			ID:              id.New(),
			PurchaseOrderID: po.ID,
			VariantID:       l.VariantID,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitCost:        types.Round2(l.UnitCost),
			LineTotal:       totals[i],
			SortOrder:       i + 1,
		}
	}
	po.Subtotal = types.Sum(totals...)
	po.TaxAmount = types.Round2(po.Subtotal.Mul(types.VATRate))
	po.Total = po.Subtotal.Add(po.TaxAmount)

	if err := s.hooks.Run(ctx, domain.BeforeCreate, po); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetSupplier(ctx, in.SupplierID); err != nil {
			return err
		}
		number, err := s.numerator.NextNumber(ctx, numerator.YearlyConfig(NumberTable, NumberField, NumberPrefix), po.OrderDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		po.Number = number

		if err := s.repo.Create(ctx, po); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, po.ID, po.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, po); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "purchase order created",
		"id", po.ID,
		"number", po.Number,
		"total", po.Total.StringFixed(2))

	return po, nil
}

// Send marks a draft as sent to the supplier.
func (s *Service) Send(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, StatusSent)
}

// MarkReceived records delivery and queues the purchase journal entry.
func (s *Service) MarkReceived(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, StatusReceived)
}

// Cancel cancels an order that has not been received.
func (s *Service) Cancel(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, poID id.ID, to Status) (*PurchaseOrder, error) {
	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if !CanTransition(po.Status, to) {
			return apperror.NewValidation("illegal status transition").
				WithDetail("from", po.Status).
				WithDetail("to", to)
		}

		po.Status = to
		if to == StatusReceived {
			now := s.now().UTC()
			po.ReceivedAt = &now
		}
		if err := s.repo.UpdateStatus(ctx, po); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		if to != StatusReceived {
			return nil
		}
		return s.events.Publish(ctx, events.Event{
			AggregateType: events.AggregatePurchaseOrder,
			AggregateID:   po.ID,
			Type:          events.PurchaseOrderReceived,
			Payload: ReceivedPayload{
				PurchaseOrderID: po.ID,
				Number:          po.Number,
				SupplierID:      po.SupplierID,
				Total:           po.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, po); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "purchase order status changed", "id", po.ID, "status", to)
	return po, nil
}

// Get returns a purchase order with its lines.
func (s *Service) Get(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	po.Lines, err = s.repo.GetLines(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return po, nil
}
