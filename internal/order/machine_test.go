package order

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// memStore implements Store with the same compare-and-swap contract as the
// database repository.
type memStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]*models.Order)}
}

func (s *memStore) FindByID(id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *memStore) Create(o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *o
	s.orders[o.ID] = &copied
	return nil
}

func (s *memStore) Update(id string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, v := range updates {
		switch col {
		case "review_chat_id":
			o.ReviewChatID = v.(int64)
		case "review_message_id":
			o.ReviewMessageID = v.(int)
		}
	}
	return nil
}

func (s *memStore) Transition(id, from, to string, updates map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	for col, v := range updates {
		switch col {
		case "receipt_file_id":
			o.ReceiptFileID = v.(string)
		case "confirmed_amount":
			o.ConfirmedAmount = v.(int64)
		case "override_amount":
			o.OverrideAmount = v.(int64)
		case "customer_name":
			o.CustomerName = v.(string)
		case "customer_phone":
			o.CustomerPhone = v.(string)
		case "customer_address":
			o.CustomerAddress = v.(string)
		}
	}
	return true, nil
}

func newTestMachine(store Store) *Machine {
	return NewMachine(store, zap.NewNop(), 50000, 5000, 10000000)
}

func openOrder(t *testing.T, m *Machine) *models.Order {
	t.Helper()
	o, err := m.Open(1001, &models.Product{ID: 5, Price: 120000}, 3, "Humo ****1234")
	require.NoError(t, err)
	require.Equal(t, models.OrderAwaitingReceipt, o.Status)
	require.Equal(t, int64(50000), o.DeclaredAmount)
	return o
}

func TestApproveHappyPath(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)

	o, err := m.AttachReceipt(o.ID, "photo-file-id")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPendingReview, o.Status)
	assert.Equal(t, "photo-file-id", o.ReceiptFileID)

	o, err = m.Approve(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderApproved, o.Status)
	assert.Equal(t, int64(50000), o.ConfirmedAmount)
	assert.Equal(t, int64(70000), o.RemainingBalance(120000))
}

func TestApproveIsIdempotent(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)

	_, err = m.Approve(o.ID)
	require.NoError(t, err)

	// Second tap on the same button.
	_, err = m.Approve(o.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRejectExcludesApprove(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)

	_, err = m.Reject(o.ID)
	require.NoError(t, err)

	_, err = m.Approve(o.ID)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := store.FindByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRejected, got.Status)
	assert.Zero(t, got.ConfirmedAmount)
}

func TestSecondReceiptRefused(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)

	_, err := m.AttachReceipt(o.ID, "first")
	require.NoError(t, err)
	_, err = m.AttachReceipt(o.ID, "second")
	assert.ErrorIs(t, err, ErrConflict)

	got, _ := store.FindByID(o.ID)
	assert.Equal(t, "first", got.ReceiptFileID)
}

func TestOverrideFlow(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)

	o, err = m.RequestOverride(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingOverrideInput, o.Status)

	o, err = m.SubmitOverrideAmount(o.ID, 30000)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingOverrideOK, o.Status)
	assert.Equal(t, int64(30000), o.OverrideAmount)

	o, err = m.ConfirmOverride(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderApproved, o.Status)
	assert.Equal(t, int64(30000), o.ConfirmedAmount)
	assert.Equal(t, int64(90000), o.RemainingBalance(120000))
}

func TestOverrideRetry(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)
	_, err = m.RequestOverride(o.ID)
	require.NoError(t, err)
	_, err = m.SubmitOverrideAmount(o.ID, 30000)
	require.NoError(t, err)

	o, err = m.RetryOverride(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingOverrideInput, o.Status)
	assert.Zero(t, o.OverrideAmount)

	o, err = m.SubmitOverrideAmount(o.ID, 45000)
	require.NoError(t, err)
	o, err = m.ConfirmOverride(o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), o.ConfirmedAmount)
}

func TestOverrideBounds(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)
	_, err = m.RequestOverride(o.ID)
	require.NoError(t, err)

	_, err = m.SubmitOverrideAmount(o.ID, 4999)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
	_, err = m.SubmitOverrideAmount(o.ID, 10000001)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	// Order is still waiting for a valid sum.
	got, _ := store.FindByID(o.ID)
	assert.Equal(t, models.OrderAwaitingOverrideInput, got.Status)

	_, err = m.SubmitOverrideAmount(o.ID, 5000)
	assert.NoError(t, err)
}

func TestDetailsFlow(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)
	_, err = m.Approve(o.ID)
	require.NoError(t, err)

	o, err = m.BeginDetails(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingBuyerDetails, o.Status)

	o, err = m.ReviewDetails(o.ID, "Aziz Karimov", "+998901234567", "Tashkent, Chilonzor 5")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmingDetails, o.Status)

	// Buyer spots a typo and edits before confirming.
	o, err = m.EditDetails(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingBuyerDetails, o.Status)

	o, err = m.ReviewDetails(o.ID, "Aziz Karimov", "+998901234567", "Tashkent, Yunusobod 9")
	require.NoError(t, err)
	o, err = m.Finalize(o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFinalized, o.Status)
	assert.Equal(t, "Tashkent, Yunusobod 9", o.CustomerAddress)

	// Replayed finalize callback.
	_, err = m.Finalize(o.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store)
	o := openOrder(t, m)
	_, err := m.AttachReceipt(o.ID, "f")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Approve(o.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
}
