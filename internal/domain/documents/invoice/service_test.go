package invoice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
)

type memRepo struct {
	mu       sync.Mutex
	invoices map[id.ID]Invoice
	lines    map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{invoices: make(map[id.ID]Invoice), lines: make(map[id.ID][]Line)}
}

func (r *memRepo) Create(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	cp.Lines = nil
	r.invoices[inv.ID] = cp
	return nil
}

func (r *memRepo) SaveLines(_ context.Context, invoiceID id.ID, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[invoiceID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, invoiceID id.ID) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return &inv, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *memRepo) GetLines(_ context.Context, invoiceID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[invoiceID]...), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.invoices[inv.ID]
	cp.Status = inv.Status
	cp.IssuedAt = inv.IssuedAt
	r.invoices[inv.ID] = cp
	return nil
}

func newTestService() (*Service, *memRepo, *events.Recorder) {
	repo := newMemRepo()
	rec := &events.Recorder{}
	svc := NewService(repo, tx.Nop{}, numerator.NewMockGenerator(), rec).
		WithClock(func() time.Time { return time.Date(2026, 11, 30, 12, 0, 0, 0, time.UTC) })
	return svc, repo, rec
}

func TestTotals(t *testing.T) {
	subtotal, tax, irpf, total := Totals([]types.Money{types.MustMoney("1000")}, types.MustMoney("15"))
	assert.Equal(t, "1000.00", subtotal.StringFixed(2))
	assert.Equal(t, "210.00", tax.StringFixed(2))
	assert.Equal(t, "150.00", irpf.StringFixed(2))
	assert.Equal(t, "1060.00", total.StringFixed(2))
}

func TestCreateAndIssue(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()
	orderID := id.New()

	inv, err := svc.Create(ctx, CreateInput{
		OrderID:        &orderID,
		IRPFPercentage: types.MustMoney("15"),
		Lines:          []LineInput{{Description: "Bespoke suit", Quantity: 1, UnitPrice: types.MustMoney("1000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "FAC-2026-0001", inv.Number)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "1060.00", inv.Total.StringFixed(2))
	assert.Empty(t, rec.Events)

	issued, err := svc.Issue(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, issued.Status)
	require.NotNil(t, repo.invoices[inv.ID].IssuedAt)
	assert.Equal(t, []string{events.InvoiceIssued}, rec.Types())

	_, err = svc.Issue(ctx, inv.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Len(t, rec.Events, 1)
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	a, b := id.New(), id.New()
	line := []LineInput{{Description: "x", Quantity: 1, UnitPrice: types.MustMoney("1")}}

	_, err := svc.Create(ctx, CreateInput{OrderID: &a, SaleID: &b, Lines: line})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{IRPFPercentage: types.MustMoney("120"), Lines: line})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.Empty(t, repo.invoices)
}
