package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
)

var fixedNow = time.Date(2026, 3, 14, 16, 30, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	repo   *memRepo
	events *events.Recorder
	nums   *numerator.MockGenerator
	store  id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newMemRepo(),
		events: &events.Recorder{},
		nums:   numerator.NewMockGenerator(),
		store:  id.New(),
	}
	f.svc = NewService(f.repo, tx.Nop{}, f.nums, f.events, "PED").
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *fixture) create(t *testing.T, kind Kind, prices ...string) *Order {
	t.Helper()
	in := CreateInput{Kind: kind, StoreID: f.store}
	for _, p := range prices {
		in.Lines = append(in.Lines, LineInput{Description: "Suit", UnitPrice: types.MustMoney(p)})
	}
	order, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return order
}

func TestCreate_ComputesTotalsAndNumber(t *testing.T) {
	f := newFixture(t)

	order := f.create(t, KindTailoring, "1000")

	assert.Equal(t, "PED-2026-0001", order.Number)
	assert.Equal(t, StatusCreated, order.Status)
	assert.Equal(t, "1000.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "210.00", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "1210.00", order.Total.StringFixed(2))
	assert.Equal(t, "1210.00", order.TotalPending.StringFixed(2))
	assert.True(t, order.TotalPaid.IsZero())

	lines, err := f.repo.GetLines(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].SortOrder)
	assert.Equal(t, StatusCreated, lines[0].Status)

	history, err := f.svc.History(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, "created", history[0].Notes)
	assert.Equal(t, "system", history[0].Actor)

	second := f.create(t, KindOnline, "10")
	assert.Equal(t, "PED-2026-0002", second.Number)
	assert.Equal(t, StatusPendingPayment, second.Status)
}

func TestCreate_UsesStorePrefix(t *testing.T) {
	f := newFixture(t)
	f.repo.prefixes[f.store] = "MAD"

	order := f.create(t, KindTailoring, "50")
	assert.Equal(t, "MAD-2026-0001", order.Number)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"no lines", CreateInput{Kind: KindTailoring, StoreID: f.store}},
		{"unknown kind", CreateInput{Kind: "rental", StoreID: f.store, Lines: []LineInput{{Description: "x"}}}},
		{"negative price", CreateInput{Kind: KindTailoring, StoreID: f.store, Lines: []LineInput{{Description: "x", UnitPrice: types.MustMoney("-1")}}}},
		{"discount over 100", CreateInput{Kind: KindTailoring, StoreID: f.store, DiscountPercentage: types.MustMoney("101"), Lines: []LineInput{{Description: "x"}}}},
		{"missing store", CreateInput{Kind: KindTailoring, Lines: []LineInput{{Description: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.in)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, f.repo.orders)
}

func TestChangeStatus_Order(t *testing.T) {
	f := newFixture(t)
	ctx := appctx.WithActor(context.Background(), &appctx.Actor{ID: "u-1", Name: "Ana"})
	order := f.create(t, KindTailoring, "300", "200")

	updated, err := f.svc.ChangeStatus(ctx, ChangeStatusInput{OrderID: order.ID, Status: "fabric_ordered", Notes: "sent"})
	require.NoError(t, err)
	assert.Equal(t, StatusFabricOrdered, updated.Status)
	for _, l := range updated.Lines {
		assert.Equal(t, StatusFabricOrdered, l.Status)
	}

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[1].FromStatus)
	assert.Equal(t, StatusCreated, *history[1].FromStatus)
	assert.Equal(t, "u-1", history[1].Actor)

	assert.Equal(t, []string{events.OrderStatusChanged}, f.events.Types())
}

func TestChangeStatus_IllegalLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.create(t, KindTailoring, "100")

	_, err := f.svc.ChangeStatus(ctx, ChangeStatusInput{OrderID: order.ID, Status: "finished"})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	stored, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, stored.Status)
	assert.Empty(t, f.events.Events)

	history, _ := f.svc.History(ctx, order.ID)
	assert.Len(t, history, 1)
}

func TestChangeStatus_LineOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.create(t, KindTailoring, "100", "200")
	lineID := order.Lines[1].ID

	updated, err := f.svc.ChangeStatus(ctx, ChangeStatusInput{OrderID: order.ID, LineID: &lineID, Status: "fabric_ordered"})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, updated.Status, "order keeps its status")

	lines, _ := f.repo.GetLines(ctx, order.ID)
	assert.Equal(t, StatusCreated, lines[0].Status)
	assert.Equal(t, StatusFabricOrdered, lines[1].Status)

	history, _ := f.svc.History(ctx, order.ID)
	require.Len(t, history, 2)
	require.NotNil(t, history[1].LineID)
	assert.Equal(t, lineID, *history[1].LineID)

	unknown := id.New()
	_, err = f.svc.ChangeStatus(ctx, ChangeStatusInput{OrderID: order.ID, LineID: &unknown, Status: "fabric_ordered"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestChangeStatus_DeliveredStampsDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.create(t, KindOnline, "40")

	for _, s := range []string{"paid", "processing", "shipped", "delivered"} {
		_, err := f.svc.ChangeStatus(ctx, ChangeStatusInput{OrderID: order.ID, Status: s})
		require.NoError(t, err, s)
	}

	stored, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ActualDeliveryDate)
	assert.Equal(t, "2026-03-14", types.FormatDate(*stored.ActualDeliveryDate))

	assert.Equal(t, []string{
		events.OrderStatusChanged,
		events.OnlineOrderPaid,
		events.OrderStatusChanged,
		events.OrderStatusChanged,
		events.OrderStatusChanged,
	}, f.events.Types())

	_, err = f.svc.ChangeStatus(ctx, ChangeStatusInput{OrderID: order.ID, Status: "refunded"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "delivered is terminal")
}

func TestChangeStatus_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{OrderID: id.New(), Status: "paid"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestScheduleFitting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.create(t, KindTailoring, "900")
	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	first, err := f.svc.ScheduleFitting(ctx, FittingInput{OrderID: order.ID, Date: date, Time: "11:00"})
	require.NoError(t, err)
	second, err := f.svc.ScheduleFitting(ctx, FittingInput{OrderID: order.ID, Date: date, Time: "12:30"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.FittingNumber)
	assert.Equal(t, 2, second.FittingNumber)
	assert.Equal(t, FittingScheduled, second.Status)

	list, err := f.svc.Fittings(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.ScheduleFitting(ctx, FittingInput{OrderID: order.ID, Date: date, Time: "25:00"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	online := f.create(t, KindOnline, "10")
	_, err = f.svc.ScheduleFitting(ctx, FittingInput{OrderID: online.ID, Date: date, Time: "11:00"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
