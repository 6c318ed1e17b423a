package purchase_order

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
	mu        sync.Mutex
	suppliers map[id.ID]Supplier
	orders    map[id.ID]PurchaseOrder
	lines     map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{
		suppliers: make(map[id.ID]Supplier),
		orders:    make(map[id.ID]PurchaseOrder),
		lines:     make(map[id.ID][]Line),
	}
}

func (r *memRepo) CreateSupplier(_ context.Context, supplier *Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *memRepo) GetSupplier(_ context.Context, supplierID id.ID) (*Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	return &s, nil
}

func (r *memRepo) Create(_ context.Context, po *PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *po
	cp.Lines = nil
	r.orders[po.ID] = cp
	return nil
}

func (r *memRepo) SaveLines(_ context.Context, poID id.ID, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[poID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, poID id.ID) (*PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	po, ok := r.orders[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID)
	}
	return &po, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, poID)
}

func (r *memRepo) GetLines(_ context.Context, poID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[poID]...), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, po *PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.orders[po.ID]
	cp.Status = po.Status
	cp.ReceivedAt = po.ReceivedAt
	r.orders[po.ID] = cp
	return nil
}

func newTestService() (*Service, *memRepo, *events.Recorder) {
	repo := newMemRepo()
	rec := &events.Recorder{}
	svc := NewService(repo, tx.Nop{}, numerator.NewMockGenerator(), rec).
		WithClock(func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) })
	return svc, repo, rec
}

func TestCreateSupplier_PlainCodes(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Lanificio Bianchi"})
	require.NoError(t, err)
	b, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Holland & Sherry", Email: "orders@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "PROV-0001", a.Code)
	assert.Equal(t, "PROV-0002", b.Code)

	_, err = svc.CreateSupplier(ctx, SupplierInput{Name: "x", Email: "not-an-email"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreateAndReceive(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()
	supplier, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Lanificio Bianchi"})
	require.NoError(t, err)

	po, err := svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Lines: []LineInput{
			{Description: "Wool 3m", Quantity: 4, UnitCost: types.MustMoney("100")},
			{Description: "Lining", Quantity: 2, UnitCost: types.MustMoney("50")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "PC-2026-0001", po.Number)
	assert.Equal(t, StatusDraft, po.Status)
	assert.Equal(t, "500.00", po.Subtotal.StringFixed(2))
	assert.Equal(t, "105.00", po.TaxAmount.StringFixed(2))
	assert.Equal(t, "605.00", po.Total.StringFixed(2))

	_, err = svc.Send(ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, rec.Events)

	received, err := svc.MarkReceived(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, received.Status)
	require.NotNil(t, repo.orders[po.ID].ReceivedAt)
	assert.Equal(t, []string{events.PurchaseOrderReceived}, rec.Types())

	_, err = svc.Cancel(ctx, po.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "received is final")

	got, err := svc.Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}

func TestCreate_UnknownSupplier(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		SupplierID: id.New(),
		Lines:      []LineInput{{Description: "Buttons", Quantity: 100, UnitCost: types.MustMoney("0.40")}},
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, repo.orders)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusReceived))
	assert.True(t, CanTransition(StatusSent, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusSent))
	assert.False(t, CanTransition(StatusReceived, StatusCancelled))
}
