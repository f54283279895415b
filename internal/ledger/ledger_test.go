package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tovarbot/internal/models"
)

type fakeSaleStore struct {
	sales    map[string]*models.Sale
	failNext bool
}

func newFakeSaleStore() *fakeSaleStore {
	return &fakeSaleStore{sales: make(map[string]*models.Sale)}
}

func (f *fakeSaleStore) Create(sale *models.Sale) error {
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	if _, ok := f.sales[sale.OrderID]; ok {
		return errors.New("Error 1062: Duplicate entry")
	}
	copied := *sale
	f.sales[sale.OrderID] = &copied
	return nil
}

func (f *fakeSaleStore) FindByOrderID(orderID string) (*models.Sale, error) {
	if s, ok := f.sales[orderID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, errors.New("record not found")
}

func (f *fakeSaleStore) MarkSheetsMirrored(orderID string) error {
	if s, ok := f.sales[orderID]; ok {
		s.SheetsMirrored = true
	}
	return nil
}

type fakeMirror struct {
	enabled bool
	err     error
	rows    [][]interface{}
}

func (f *fakeMirror) Enabled() bool { return f.enabled }
func (f *fakeMirror) Append(row []interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func finalizedOrder() *models.Order {
	return &models.Order{
		ID:              "ord-1",
		BuyerID:         1001,
		ProductID:       5,
		ConfirmedAmount: 50000,
		PaymentLabel:    "Humo ****1234",
		Status:          models.OrderFinalized,
		CustomerName:    "Aziz Karimov",
		CustomerPhone:   "+998901234567",
		CustomerAddress: "Tashkent, Chilonzor 5",
	}
}

func TestRecordWritesSale(t *testing.T) {
	store := newFakeSaleStore()
	mirror := &fakeMirror{enabled: true}
	w := NewWriter(store, mirror, zap.NewNop())
	product := &models.Product{ID: 5, Name: "Box", Price: 120000}

	sale, status, err := w.Record(finalizedOrder(), product)
	require.NoError(t, err)
	assert.Equal(t, MirrorDone, status)
	assert.Equal(t, int64(70000), sale.RemainingAmount)
	assert.Equal(t, models.FulfillNew, sale.FulfillStatus)
	assert.True(t, sale.SheetsMirrored)
	require.Len(t, mirror.rows, 1)
}

func TestRecordDuplicateReturnsExisting(t *testing.T) {
	store := newFakeSaleStore()
	w := NewWriter(store, &fakeMirror{}, zap.NewNop())
	product := &models.Product{ID: 5, Price: 120000}

	first, _, err := w.Record(finalizedOrder(), product)
	require.NoError(t, err)

	second, _, err := w.Record(finalizedOrder(), product)
	require.NoError(t, err)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Len(t, store.sales, 1)
}

func TestRecordMirrorFailureIsSoft(t *testing.T) {
	store := newFakeSaleStore()
	mirror := &fakeMirror{enabled: true, err: errors.New("quota exceeded")}
	w := NewWriter(store, mirror, zap.NewNop())

	sale, status, err := w.Record(finalizedOrder(), &models.Product{ID: 5, Price: 120000})
	require.NoError(t, err)
	assert.Equal(t, MirrorFailed, status)
	assert.False(t, sale.SheetsMirrored)
	// The durable row exists regardless.
	assert.Len(t, store.sales, 1)
}

func TestRecordMirrorDisabled(t *testing.T) {
	store := newFakeSaleStore()
	w := NewWriter(store, &fakeMirror{enabled: false}, zap.NewNop())

	_, mirror, err := w.Record(finalizedOrder(), &models.Product{ID: 5, Price: 120000})
	require.NoError(t, err)
	assert.Equal(t, MirrorDisabled, mirror)
}

func TestCloseWritesSaleBeforeFinalizing(t *testing.T) {
	store := newFakeSaleStore()
	store.failNext = true
	w := NewWriter(store, &fakeMirror{}, zap.NewNop())

	o := finalizedOrder()
	o.Status = models.OrderConfirmingDetails
	product := &models.Product{ID: 5, Price: 120000}

	finalized := 0
	fin := func(orderID string) (*models.Order, error) {
		finalized++
		closed := *o
		closed.Status = models.OrderFinalized
		return &closed, nil
	}

	_, _, _, err := w.Close(o, product, fin)
	require.Error(t, err)
	assert.Zero(t, finalized, "order must stay open when the sale row cannot be written")
	assert.Empty(t, store.sales)

	// A second tap retries cleanly once the store recovers.
	closed, sale, _, err := w.Close(o, product, fin)
	require.NoError(t, err)
	assert.Equal(t, 1, finalized)
	assert.Equal(t, models.OrderFinalized, closed.Status)
	assert.Equal(t, o.ID, sale.OrderID)
}

func TestCloseReplaySurfacesConflict(t *testing.T) {
	store := newFakeSaleStore()
	w := NewWriter(store, &fakeMirror{}, zap.NewNop())

	o := finalizedOrder()
	o.Status = models.OrderConfirmingDetails
	product := &models.Product{ID: 5, Price: 120000}

	_, _, _, err := w.Close(o, product, func(string) (*models.Order, error) {
		closed := *o
		closed.Status = models.OrderFinalized
		return &closed, nil
	})
	require.NoError(t, err)

	conflict := errors.New("order state conflict")
	_, sale, _, err := w.Close(o, product, func(string) (*models.Order, error) {
		return nil, conflict
	})
	assert.ErrorIs(t, err, conflict)
	require.NotNil(t, sale)
	assert.Len(t, store.sales, 1)
}

func TestRecordStoreFailure(t *testing.T) {
	store := newFakeSaleStore()
	store.failNext = true
	w := NewWriter(store, &fakeMirror{enabled: true}, zap.NewNop())

	_, _, err := w.Record(finalizedOrder(), &models.Product{ID: 5, Price: 120000})
	assert.Error(t, err)
}
