package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
)

func newTestService() (*Service, *memRepo, *events.Recorder) {
	repo := newMemRepo()
	rec := &events.Recorder{}
	return NewService(repo, tx.Nop{}, rec), repo, rec
}

func decrease(variant, warehouse id.ID, qty int) AdjustInput {
	return AdjustInput{VariantID: variant, WarehouseID: warehouse, Quantity: qty, Direction: DirectionDecrease, Reason: "damaged"}
}

func TestAdjustStock_NegativeRejected(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()
	variant, warehouse := id.New(), id.New()
	repo.seed(variant, warehouse, 5)

	m, err := svc.AdjustStock(ctx, decrease(variant, warehouse, 3))
	require.NoError(t, err)
	assert.Equal(t, MovementAdjustmentNegative, m.MovementType)
	assert.Equal(t, -3, m.Quantity)
	assert.Equal(t, 5, m.StockBefore)
	assert.Equal(t, 2, m.StockAfter)

	_, err = svc.AdjustStock(ctx, decrease(variant, warehouse, 3))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNegativeStock, appErr.Code)
	assert.Equal(t, "2", appErr.Details["available"])
	assert.Equal(t, "3", appErr.Details["requested"])

	assert.Equal(t, 2, repo.qty(variant, warehouse))
	assert.Len(t, rec.Events, 1)
}

func TestAdjustStock_ProvisionsLevel(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	variant, warehouse := id.New(), id.New()

	m, err := svc.AdjustStock(ctx, AdjustInput{VariantID: variant, WarehouseID: warehouse, Quantity: 4, Direction: DirectionIncrease})
	require.NoError(t, err)
	assert.Equal(t, MovementAdjustmentPositive, m.MovementType)
	assert.Equal(t, 4, repo.qty(variant, warehouse))
	assert.Equal(t, "system", m.Actor)
}

func TestAdjustStock_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	variant, warehouse := id.New(), id.New()

	_, err := svc.AdjustStock(ctx, AdjustInput{VariantID: variant, WarehouseID: warehouse, Quantity: 0, Direction: DirectionIncrease})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	_, err = svc.AdjustStock(ctx, AdjustInput{VariantID: variant, WarehouseID: warehouse, Quantity: 1, Direction: "sideways"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	_, err = svc.AdjustStock(ctx, AdjustInput{WarehouseID: warehouse, Quantity: 1, Direction: DirectionIncrease})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestTransferStock(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	variant, from, to := id.New(), id.New(), id.New()
	repo.seed(variant, from, 10)
	repo.seed(variant, to, 1)

	tr, err := svc.TransferStock(ctx, TransferInput{VariantID: variant, From: from, To: to, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, repo.qty(variant, from))
	assert.Equal(t, 5, repo.qty(variant, to))
	assert.Equal(t, MovementTransferOut, tr.Out.MovementType)
	assert.Equal(t, MovementTransferIn, tr.In.MovementType)
	require.NotNil(t, tr.Out.TransferID)
	assert.Equal(t, tr.ID, *tr.Out.TransferID)
	assert.Equal(t, *tr.Out.TransferID, *tr.In.TransferID)

	_, err = svc.TransferStock(ctx, TransferInput{VariantID: variant, From: from, To: to, Quantity: 7})
	assert.True(t, apperror.HasCode(err, apperror.CodeNegativeStock))
	assert.Equal(t, 6, repo.qty(variant, from))
	assert.Equal(t, 5, repo.qty(variant, to))

	_, err = svc.TransferStock(ctx, TransferInput{VariantID: variant, From: from, To: id.New(), Quantity: 1})
	assert.True(t, apperror.IsNotFound(err), "destination is not provisioned")

	_, err = svc.TransferStock(ctx, TransferInput{VariantID: variant, From: from, To: from, Quantity: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestDecrementForSale(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()
	shirt, tie := id.New(), id.New()
	shop, depot := id.New(), id.New()
	repo.seed(shirt, shop, 3)
	repo.seed(shirt, depot, 20)
	repo.seed(tie, depot, 1)
	saleID := id.New()

	movements, err := svc.DecrementForSale(ctx, saleID, &shop, []SaleLine{
		{VariantID: shirt, Quantity: 2},
		{VariantID: shirt, Quantity: 2},
		{VariantID: tie, Quantity: 1},
		{VariantID: id.New(), Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, 0, repo.qty(shirt, shop), "floored at zero")
	assert.Equal(t, 20, repo.qty(shirt, depot))
	assert.Equal(t, 0, repo.qty(tie, depot), "falls back to the only level")

	for _, m := range movements {
		assert.Equal(t, MovementSale, m.MovementType)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, saleID, *m.ReferenceID)
		if m.VariantID == shirt {
			assert.Equal(t, -3, m.Quantity, "records the delta actually applied")
		}
	}
	assert.Equal(t, []string{events.StockMoved}, rec.Types())
}

func TestDecrementForSale_FirstWarehouseWhenUnknown(t *testing.T) {
	svc, repo, _ := newTestService()
	variant := id.New()
	a, b := id.New(), id.New()
	if id.Less(b, a) {
		a, b = b, a
	}
	repo.seed(variant, a, 5)
	repo.seed(variant, b, 5)

	_, err := svc.DecrementForSale(context.Background(), id.New(), nil, []SaleLine{{VariantID: variant, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.qty(variant, a))
	assert.Equal(t, 5, repo.qty(variant, b))
}

func TestReconcile(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	variant, from, to := id.New(), id.New(), id.New()
	repo.seed(variant, from, 8)
	repo.seed(variant, to, 0)

	_, err := svc.AdjustStock(ctx, decrease(variant, from, 1))
	require.NoError(t, err)
	_, err = svc.TransferStock(ctx, TransferInput{VariantID: variant, From: from, To: to, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.DecrementForSale(ctx, id.New(), &to, []SaleLine{{VariantID: variant, Quantity: 2}})
	require.NoError(t, err)

	for _, wh := range []id.ID{from, to} {
		report, err := svc.Reconcile(ctx, variant, wh)
		require.NoError(t, err)
		assert.True(t, report.Consistent(), "%+v", report)
		assert.Equal(t, repo.qty(variant, wh), report.Replayed)
	}

	repo.levels[levelKey{variant, from}].Quantity = 99
	report, err := svc.Reconcile(ctx, variant, from)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, 95, report.Drift)
}

func TestGetMovementHistory(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	variant, warehouse := id.New(), id.New()
	repo.seed(variant, warehouse, 10)
	for i := 0; i < 3; i++ {
		_, err := svc.AdjustStock(ctx, decrease(variant, warehouse, 1))
		require.NoError(t, err)
	}

	history, err := svc.GetMovementHistory(ctx, MovementFilter{VariantID: &variant, Limit: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 7, history[0].StockAfter, "newest first")

	bad := MovementType("theft")
	_, err = svc.GetMovementHistory(ctx, MovementFilter{MovementType: &bad})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
