package invoice

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
	NumberPrefix = "FAC"
	NumberTable  = "invoices"
	NumberField  = "invoice_number"
)

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	events    events.Publisher
	hooks     *domain.HookRegistry[*Invoice]
	now       func() time.Time
}

// NewService creates a new invoice service.
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
		hooks:     domain.NewHookRegistry[*Invoice](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Totals derives invoice amounts from rounded line totals.
func Totals(lineTotals []types.Money, irpfPercentage types.Money) (subtotal, tax, irpf, total types.Money) {
	subtotal = types.Sum(lineTotals...)
	tax = types.Round2(subtotal.Mul(types.VATRate))
	irpf = types.Round2(types.Percent(subtotal, irpfPercentage))
	total = subtotal.Add(tax).Sub(irpf)
	return subtotal, tax, irpf, total
}

// Create drafts an invoice under the next FAC number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inv := &Invoice{
		ID:             id.New(),
		OrderID:        in.OrderID,
		SaleID:         in.SaleID,
		ClientID:       in.ClientID,
		InvoiceDate:    types.DateOf(now),
		IRPFPercentage: types.Round2(in.IRPFPercentage),
		Status:         StatusDraft,
		Notes:          in.Notes,
		CreatedAt:      now,
	}
	if !in.InvoiceDate.IsZero() {
		inv.InvoiceDate = types.DateOf(in.InvoiceDate)
	}

	inv.Lines = make([]Line, len(in.Lines))
	totals := make([]types.Money, len(in.Lines))
	for i, l := range in.Lines {
		totals[i] = types.Round2(l.UnitPrice.Mul(types.FromInt(l.Quantity)))
		inv.Lines[i] = Line{
			ID:          id.New(),
			InvoiceID:   inv.ID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   types.Round2(l.UnitPrice),
			LineTotal:   totals[i],
			SortOrder:   i + 1,
		}
	}
	inv.Subtotal, inv.TaxAmount, inv.IRPFAmount, inv.Total = Totals(totals, inv.IRPFPercentage)

	if err := s.hooks.Run(ctx, domain.BeforeCreate, inv); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.NextNumber(ctx, numerator.YearlyConfig(NumberTable, NumberField, NumberPrefix), inv.InvoiceDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv.Number = number

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, inv); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"total", inv.Total.StringFixed(2))

	return inv, nil
}

func validateCreate(in CreateInput) error {
	if in.OrderID != nil && in.SaleID != nil {
		return apperror.NewValidation("an invoice references an order or a sale, not both")
	}
	if err := domain.ValidateStruct(in); err != nil {
		return err
	}
	if err := domain.RequirePercentage("irpf_percentage", in.IRPFPercentage); err != nil {
		return err
	}
	for i, l := range in.Lines {
		if err := domain.RequireNonNegative("unit_price", l.UnitPrice); err != nil {
			return err.(*apperror.AppError).WithDetail("line", i+1)
		}
	}
	return nil
}

// Issue finalizes a draft and queues its journal entry.
func (s *Service) Issue(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != StatusDraft {
			return apperror.NewValidation("invoice is already issued").WithDetail("number", inv.Number)
		}

		now := s.now().UTC()
		inv.Status = StatusIssued
		inv.IssuedAt = &now
		if err := s.repo.UpdateStatus(ctx, inv); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		return s.events.Publish(ctx, events.Event{
			AggregateType: events.AggregateInvoice,
			AggregateID:   inv.ID,
			Type:          events.InvoiceIssued,
			Payload:       IssuedPayload{InvoiceID: inv.ID, Number: inv.Number, Total: inv.Total},
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, inv); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "invoice issued", "id", inv.ID, "number", inv.Number)
	return inv, nil
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Lines, err = s.repo.GetLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return inv, nil
}
