package order

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tovarbot/internal/models"
	"tovarbot/internal/pkg/utils"
)

var (
	// ErrConflict means the order was not in the expected state. Duplicate
	// callback taps land here and must be answered quietly, not retried.
	ErrConflict = errors.New("order state conflict")
	// ErrAmountOutOfRange rejects override sums outside the configured bounds.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Store is the persistence surface the machine drives. Implemented by
// repository.OrderRepository.
type Store interface {
	FindByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(id string, updates map[string]interface{}) error
	Transition(id, from, to string, updates map[string]interface{}) (bool, error)
}

// Machine owns every wallet-payment status transition. All moves are
// compare-and-swap on the current status, so replayed updates and double
// taps become no-ops instead of double approvals.
type Machine struct {
	store       Store
	log         *zap.Logger
	declared    int64
	overrideMin int64
	overrideMax int64
}

func NewMachine(store Store, log *zap.Logger, declared, overrideMin, overrideMax int64) *Machine {
	return &Machine{
		store:       store,
		log:         log,
		declared:    declared,
		overrideMin: overrideMin,
		overrideMax: overrideMax,
	}
}

// DeclaredAmount is the fixed sum every wallet order opens with.
func (m *Machine) DeclaredAmount() int64 { return m.declared }

// OverrideBounds returns the inclusive range a reviewer correction must fall in.
func (m *Machine) OverrideBounds() (int64, int64) { return m.overrideMin, m.overrideMax }

// Open creates a wallet order in awaiting_receipt.
func (m *Machine) Open(buyerID int64, product *models.Product, walletID int64, label string) (*models.Order, error) {
	o := &models.Order{
		ID:             utils.NewOrderID(),
		BuyerID:        buyerID,
		ProductID:      product.ID,
		WalletID:       walletID,
		DeclaredAmount: m.declared,
		Status:         models.OrderAwaitingReceipt,
		PaymentLabel:   label,
	}
	if err := m.store.Create(o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// Cancel abandons an order the buyer never sent a receipt for.
func (m *Machine) Cancel(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderAwaitingReceipt, models.OrderRejected, nil)
}

// AttachReceipt records the buyer's receipt photo and moves the order into
// review. A second photo on the same order is a conflict.
func (m *Machine) AttachReceipt(orderID, fileID string) (*models.Order, error) {
	return m.move(orderID, models.OrderAwaitingReceipt, models.OrderPendingReview, map[string]interface{}{
		"receipt_file_id": fileID,
	})
}

// SetReviewMessage remembers where the reviewer's copy of the receipt lives
// so the decision can be stamped onto it later.
func (m *Machine) SetReviewMessage(orderID string, chatID int64, messageID int) error {
	return m.store.Update(orderID, map[string]interface{}{
		"review_chat_id":    chatID,
		"review_message_id": messageID,
	})
}

// Approve accepts the declared amount as the confirmed one.
func (m *Machine) Approve(orderID string) (*models.Order, error) {
	o, err := m.store.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	return m.move(orderID, models.OrderPendingReview, models.OrderApproved, map[string]interface{}{
		"confirmed_amount": o.DeclaredAmount,
	})
}

// Reject closes the order without payment.
func (m *Machine) Reject(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderPendingReview, models.OrderRejected, nil)
}

// RequestOverride parks the order while the reviewer types a corrected sum.
func (m *Machine) RequestOverride(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderPendingReview, models.OrderAwaitingOverrideInput, nil)
}

// SubmitOverrideAmount records the reviewer's corrected sum, pending their
// confirmation. Out-of-range sums leave the order untouched.
func (m *Machine) SubmitOverrideAmount(orderID string, amount int64) (*models.Order, error) {
	if amount < m.overrideMin || amount > m.overrideMax {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrAmountOutOfRange, amount, m.overrideMin, m.overrideMax)
	}
	return m.move(orderID, models.OrderAwaitingOverrideInput, models.OrderAwaitingOverrideOK, map[string]interface{}{
		"override_amount": amount,
	})
}

// ConfirmOverride approves the order at the corrected amount.
func (m *Machine) ConfirmOverride(orderID string) (*models.Order, error) {
	o, err := m.store.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	return m.move(orderID, models.OrderAwaitingOverrideOK, models.OrderApproved, map[string]interface{}{
		"confirmed_amount": o.OverrideAmount,
	})
}

// RetryOverride sends the reviewer back to entering a sum.
func (m *Machine) RetryOverride(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderAwaitingOverrideOK, models.OrderAwaitingOverrideInput, map[string]interface{}{
		"override_amount": int64(0),
	})
}

// BeginDetails opens the buyer-details flow after approval.
func (m *Machine) BeginDetails(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderApproved, models.OrderAwaitingBuyerDetails, nil)
}

// ReviewDetails stores the collected details and asks the buyer to confirm.
func (m *Machine) ReviewDetails(orderID, name, phone, address string) (*models.Order, error) {
	return m.move(orderID, models.OrderAwaitingBuyerDetails, models.OrderConfirmingDetails, map[string]interface{}{
		"customer_name":    name,
		"customer_phone":   phone,
		"customer_address": address,
	})
}

// EditDetails reopens the details flow from the confirmation screen.
func (m *Machine) EditDetails(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderConfirmingDetails, models.OrderAwaitingBuyerDetails, nil)
}

// Finalize closes the order. The caller writes the sale row before calling
// Finalize, so a failed transition leaves the order retryable in
// confirming_details; the unique index on sales.order_id keeps the
// pre-written row exactly-once across retries.
func (m *Machine) Finalize(orderID string) (*models.Order, error) {
	return m.move(orderID, models.OrderConfirmingDetails, models.OrderFinalized, nil)
}

func (m *Machine) move(orderID, from, to string, updates map[string]interface{}) (*models.Order, error) {
	ok, err := m.store.Transition(orderID, from, to, updates)
	if err != nil {
		return nil, fmt.Errorf("transition %s -> %s: %w", from, to, err)
	}
	if !ok {
		m.log.Debug("transition refused",
			zap.String("order_id", orderID),
			zap.String("from", from),
			zap.String("to", to))
		return nil, ErrConflict
	}
	return m.store.FindByID(orderID)
}
