package orders

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/internal/domain/scheduling"
	"atelier/pkg/logger"
)

const (
	// NumberTable and NumberField locate issued order numbers.
	NumberTable = "orders"
	NumberField = "order_number"
)

// StatusChangedPayload is the outbox payload of events.OrderStatusChanged.
type StatusChangedPayload struct {
	OrderID     id.ID     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Kind        Kind      `json:"kind"`
	LineID      *id.ID    `json:"line_id,omitempty"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	Notes       string    `json:"notes,omitempty"`
	Actor       string    `json:"actor"`
	ChangedAt   time.Time `json:"changed_at"`
}

// Service implements the order lifecycle.
type Service struct {
	repo          Repository
	txManager     tx.Manager
	numerator     numerator.Generator
	events        events.Publisher
	defaultPrefix string
	now           func() time.Time
}

// NewService creates a new order service. defaultPrefix numbers orders of
// stores that have no prefix configured.
func NewService(
	repo Repository,
	txManager tx.Manager,
	numerator numerator.Generator,
	publisher events.Publisher,
	defaultPrefix string,
) *Service {
	return &Service{
		repo:          repo,
		txManager:     txManager,
		numerator:     numerator,
		events:        publisher,
		defaultPrefix: defaultPrefix,
		now:           time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates input, computes totals and persists the order with its
// lines and a "created" history row in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := InitialStatus(in.Kind)
	order := &Order{
		ID:                    id.New(),
		Kind:                  in.Kind,
		Status:                status,
		StoreID:               in.StoreID,
		ClientID:              in.ClientID,
		DiscountPercentage:    types.Round2(in.DiscountPercentage),
		EstimatedDeliveryDate: in.EstimatedDeliveryDate,
		Notes:                 in.Notes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	lineTotals := make([]types.Money, len(in.Lines))
	order.Lines = make([]Line, len(in.Lines))
	for i, l := range in.Lines {
		lineTotals[i] = LineTotal(l.UnitPrice, l.DiscountPercentage)
		order.Lines[i] = Line{
			ID:                 id.New(),
			OrderID:            order.ID,
			Description:        l.Description,
			FabricID:           l.FabricID,
			UnitPrice:          types.Round2(l.UnitPrice),
			DiscountPercentage: types.Round2(l.DiscountPercentage),
			LineTotal:          lineTotals[i],
			Status:             status,
			SortOrder:          i + 1,
		}
	}

	totals := ComputeTotals(lineTotals, order.DiscountPercentage)
	order.Subtotal = totals.Subtotal
	order.DiscountAmount = totals.DiscountAmount
	order.TaxAmount = totals.TaxAmount
	order.Total = totals.Total
	order.TotalPaid = types.Zero()
	order.TotalPending = totals.Total

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		prefix, err := s.repo.StoreOrderPrefix(ctx, in.StoreID)
		if err != nil {
			return fmt.Errorf("resolve order prefix: %w", err)
		}
		if prefix == "" {
			prefix = s.defaultPrefix
		}

		number, err := s.numerator.NextNumber(ctx, numerator.YearlyConfig(NumberTable, NumberField, prefix), now)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		order.Number = number

		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, order.ID, order.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.repo.AddHistory(ctx, &HistoryEntry{
			ID:        id.New(),
			OrderID:   order.ID,
			ToStatus:  status,
			Notes:     "created",
			Actor:     appctx.GetActorID(ctx),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"id", order.ID,
		"number", order.Number,
		"total", order.Total.StringFixed(2))

	return order, nil
}

func validateCreate(in CreateInput) error {
	if err := domain.ValidateStruct(in); err != nil {
		return err
	}
	if err := domain.RequirePercentage("discount_percentage", in.DiscountPercentage); err != nil {
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

// ChangeStatus moves the whole order, or a single line when in.LineID is
// set, to a new status and records a history row.
func (s *Service) ChangeStatus(ctx context.Context, in ChangeStatusInput) (*Order, error) {
	to := Status(in.Status)
	if to == "" {
		return nil, apperror.NewValidation("status is required").WithDetail("field", "status")
	}

	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		order.Lines, err = s.repo.GetLines(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		now := s.now().UTC()
		entry := &HistoryEntry{
			ID:        id.New(),
			OrderID:   order.ID,
			LineID:    in.LineID,
			ToStatus:  to,
			Notes:     in.Notes,
			Actor:     appctx.GetActorID(ctx),
			CreatedAt: now,
		}

		if in.LineID != nil {
			line := findLine(order.Lines, *in.LineID)
			if line == nil {
				return apperror.NewNotFound("order line", *in.LineID)
			}
			if err := CheckTransition(order.Kind, line.Status, to); err != nil {
				return err
			}
			from := line.Status
			entry.FromStatus = &from
			if err := s.repo.UpdateLineStatus(ctx, line.ID, to); err != nil {
				return fmt.Errorf("update line status: %w", err)
			}
			line.Status = to
		} else {
			if err := CheckTransition(order.Kind, order.Status, to); err != nil {
				return err
			}
			from := order.Status
			entry.FromStatus = &from
			order.Status = to
			order.UpdatedAt = now
			if to == StatusDelivered {
				today := types.DateOf(now)
				order.ActualDeliveryDate = &today
			}
			if err := s.repo.UpdateStatus(ctx, order); err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
			if err := s.repo.UpdateAllLineStatuses(ctx, order.ID, to); err != nil {
				return fmt.Errorf("update line statuses: %w", err)
			}
			for i := range order.Lines {
				order.Lines[i].Status = to
			}
		}

		if err := s.repo.AddHistory(ctx, entry); err != nil {
			return fmt.Errorf("add history: %w", err)
		}
		return s.publishStatusChanged(ctx, order, entry)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order status changed",
		"id", order.ID,
		"line_id", in.LineID,
		"status", to)

	return order, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, order *Order, entry *HistoryEntry) error {
	payload := StatusChangedPayload{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Kind:        order.Kind,
		LineID:      entry.LineID,
		From:        *entry.FromStatus,
		To:          entry.ToStatus,
		Notes:       entry.Notes,
		Actor:       entry.Actor,
		ChangedAt:   entry.CreatedAt,
	}
	if err := s.events.Publish(ctx, events.Event{
		AggregateType: events.AggregateOrder,
		AggregateID:   order.ID,
		Type:          events.OrderStatusChanged,
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}

	if order.Kind == KindOnline && entry.LineID == nil && entry.ToStatus == StatusPaid {
		if err := s.events.Publish(ctx, events.Event{
			AggregateType: events.AggregateOrder,
			AggregateID:   order.ID,
			Type:          events.OnlineOrderPaid,
			Payload:       map[string]any{"order_id": order.ID},
		}); err != nil {
			return fmt.Errorf("publish online order paid: %w", err)
		}
	}
	return nil
}

func findLine(lines []Line, lineID id.ID) *Line {
	for i := range lines {
		if lines[i].ID == lineID {
			return &lines[i]
		}
	}
	return nil
}

// Get returns the order with its lines.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines, err = s.repo.GetLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return order, nil
}

// History returns the status history of an order, oldest first.
func (s *Service) History(ctx context.Context, orderID id.ID) ([]HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, orderID)
}

// ScheduleFitting appends the next numbered fitting to a tailoring order.
// Fittings are numbered per order and are not checked against the
// appointment calendar.
func (s *Service) ScheduleFitting(ctx context.Context, in FittingInput) (*Fitting, error) {
	if in.Date.IsZero() {
		return nil, apperror.NewValidation("fitting date is required").WithDetail("field", "date")
	}
	if _, err := scheduling.ParseTimeOfDay(in.Time); err != nil {
		return nil, err
	}

	var fitting *Fitting
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order.Kind != KindTailoring {
			return apperror.NewValidation("fittings apply to tailoring orders only").
				WithDetail("kind", order.Kind)
		}
		if IsTerminal(order.Kind, order.Status) {
			return apperror.NewValidation("order is closed").WithDetail("status", order.Status)
		}

		max, err := s.repo.MaxFittingNumber(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("max fitting number: %w", err)
		}

		fitting = &Fitting{
			ID:            id.New(),
			OrderID:       order.ID,
			FittingNumber: max + 1,
			Date:          types.DateOf(in.Date),
			Time:          in.Time,
			TailorID:      in.TailorID,
			Status:        FittingScheduled,
			Notes:         in.Notes,
			CreatedAt:     s.now().UTC(),
		}
		return s.repo.CreateFitting(ctx, fitting)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "fitting scheduled",
		"order_id", fitting.OrderID,
		"fitting_number", fitting.FittingNumber)

	return fitting, nil
}

// Fittings lists the fittings of an order by number.
func (s *Service) Fittings(ctx context.Context, orderID id.ID) ([]Fitting, error) {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListFittings(ctx, orderID)
}
