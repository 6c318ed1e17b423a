package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/payments"
	"atelier/internal/domain/registers/stock"
)

func TestAddPaymentRequest_DefaultsToToday(t *testing.T) {
	var req AddPaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"target_kind": "order",
		"target_id": "0190f0a4-9b7e-7c1a-8d2e-3f4a5b6c7d8e",
		"amount": "150.50",
		"method": "card",
		"next_payment_date": "2026-04-01"
	}`), &req))

	today := time.Date(2026, 3, 14, 17, 30, 0, 0, time.UTC)
	in, err := req.ToInput(today)
	require.NoError(t, err)

	assert.Equal(t, payments.TargetOrder, in.Target.Kind)
	want, err := types.NewMoneyFromString("150.50")
	require.NoError(t, err)
	assert.True(t, in.Amount.Equal(want))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), in.PaymentDate)
	require.NotNil(t, in.NextPaymentDate)
	assert.Equal(t, "2026-04-01", types.FormatDate(*in.NextPaymentDate))
}

func TestAddPaymentRequest_InvalidDate(t *testing.T) {
	req := AddPaymentRequest{TargetKind: payments.TargetSale, TargetID: id.New(), PaymentDate: "14/03/2026"}

	_, err := req.ToInput(time.Now())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestMovementsQuery_ToDateInclusive(t *testing.T) {
	to := "2026-03-14"
	mt := "sale"
	f, err := MovementsQuery{ToDate: &to, MovementType: &mt}.ToFilter()
	require.NoError(t, err)

	require.NotNil(t, f.ToDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *f.ToDate)
	require.NotNil(t, f.MovementType)
	assert.Equal(t, stock.MovementSale, *f.MovementType)
	assert.Nil(t, f.FromDate)
}

func TestFailure(t *testing.T) {
	body := Failure(apperror.NewNotFound("order", "42"))

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"code":"NOT_FOUND","message":"order not found","details":{"entity":"order","id":"42"}}`, string(raw))
}
