package sale

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
	"atelier/internal/domain/payments"
	"atelier/internal/domain/registers/stock"
	"atelier/pkg/logger"
)

const (
	NumberPrefix = "TCK"
	NumberTable  = "sales"
	NumberField  = "sale_number"
)

// StockLedger removes sold units from stock.
type StockLedger interface {
	DecrementForSale(ctx context.Context, saleID id.ID, warehouseID *id.ID, lines []stock.SaleLine) ([]stock.Movement, error)
}

// Service provides business operations for sales.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	stock     StockLedger
	events    events.Publisher
	hooks     *domain.HookRegistry[*Sale]
	now       func() time.Time
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	numerator numerator.Generator,
	stockLedger StockLedger,
	publisher events.Publisher,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: numerator,
		stock:     stockLedger,
		events:    publisher,
		hooks:     domain.NewHookRegistry[*Sale](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Sale] {
	return s.hooks
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create opens a sale with computed totals and a TCK number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sale := &Sale{
		ID:            id.New(),
		StoreID:       in.StoreID,
		WarehouseID:   in.WarehouseID,
		ClientID:      in.ClientID,
		AmountPaid:    types.Zero(),
		PaymentStatus: payments.StatusPending,
		Status:        StatusOpen,
		SaleDate:      types.DateOf(now),
		Notes:         in.Notes,
		CreatedAt:     now,
	}
	if !in.SaleDate.IsZero() {
		sale.SaleDate = types.DateOf(in.SaleDate)
	}

	sale.Lines = make([]Line, len(in.Lines))
	totals := make([]types.Money, len(in.Lines))
	for i, l := range in.Lines {
		totals[i] = LineTotal(l.UnitPrice, l.Quantity, l.DiscountPercentage)
		sale.Lines[i] = Line{
			ID:                 id.New(),
			SaleID:             sale.ID,
			VariantID:          l.VariantID,
			Description:        l.Description,
			Quantity:           l.Quantity,
			UnitPrice:          types.Round2(l.UnitPrice),
			DiscountPercentage: types.Round2(l.DiscountPercentage),
			LineTotal:          totals[i],
			SortOrder:          i + 1,
		}
	}
	sale.Subtotal = types.Sum(totals...)
	sale.TaxAmount = types.Round2(sale.Subtotal.Mul(types.VATRate))
	sale.Total = sale.Subtotal.Add(sale.TaxAmount)

	if err := s.hooks.Run(ctx, domain.BeforeCreate, sale); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.NextNumber(ctx, numerator.YearlyConfig(NumberTable, NumberField, NumberPrefix), sale.SaleDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		sale.Number = number

		if err := s.repo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		if err := s.repo.SaveLines(ctx, sale.ID, sale.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, sale); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "sale created",
		"id", sale.ID,
		"number", sale.Number,
		"total", sale.Total.StringFixed(2))

	return sale, nil
}

func validateCreate(in CreateInput) error {
	if err := domain.ValidateStruct(in); err != nil {
		return err
	}
	for i, l := range in.Lines {
		if err := domain.RequireNonNegative("unit_price", l.UnitPrice); err != nil {
			return err.(*apperror.AppError).WithDetail("line", i+1)
		}
		if err := domain.RequirePercentage("discount_percentage", l.DiscountPercentage); err != nil {
			return err.(*apperror.AppError).WithDetail("line", i+1)
		}
	}
	return nil
}

// LineTotal returns unit_price * quantity * (1 - discount/100) rounded to cents.
func LineTotal(unitPrice types.Money, quantity int, discountPercentage types.Money) types.Money {
	gross := unitPrice.Mul(types.FromInt(quantity))
	return types.Round2(gross.Sub(types.Percent(gross, discountPercentage)))
}

// Complete closes an open sale: stock is decremented and the
// sale.completed event is queued in the same transaction.
func (s *Service) Complete(ctx context.Context, saleID id.ID) (*Sale, error) {
	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusOpen {
			return apperror.NewValidation("only open sales can be completed").
				WithDetail("status", sale.Status)
		}
		sale.Lines, err = s.repo.GetLines(ctx, saleID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		sold := make([]stock.SaleLine, len(sale.Lines))
		for i, l := range sale.Lines {
			sold[i] = stock.SaleLine{VariantID: l.VariantID, Quantity: l.Quantity}
		}
		if _, err := s.stock.DecrementForSale(ctx, sale.ID, sale.WarehouseID, sold); err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		now := s.now().UTC()
		sale.Status = StatusCompleted
		sale.CompletedAt = &now
		if err := s.repo.UpdateStatus(ctx, sale); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		return s.events.Publish(ctx, events.Event{
			AggregateType: events.AggregateSale,
			AggregateID:   sale.ID,
			Type:          events.SaleCompleted,
			Payload:       CompletedPayload{SaleID: sale.ID, Number: sale.Number, Total: sale.Total},
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, sale); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "sale completed", "id", sale.ID, "number", sale.Number)
	return sale, nil
}

// Void cancels an open sale. Completed sales are never voided.
func (s *Service) Void(ctx context.Context, saleID id.ID) (*Sale, error) {
	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusOpen {
			return apperror.NewValidation("only open sales can be voided").
				WithDetail("status", sale.Status)
		}
		if sale.AmountPaid.IsPositive() {
			return apperror.NewValidation("sale has payments").
				WithDetail("amount_paid", sale.AmountPaid.StringFixed(2))
		}
		sale.Status = StatusVoided
		return s.repo.UpdateStatus(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, sale); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "sale voided", "id", sale.ID)
	return sale, nil
}

// Get returns a sale with its lines.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Lines, err = s.repo.GetLines(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return sale, nil
}
