package repository

import (
	"time"

	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// OrderRepository handles manual-payment order rows.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID finds an order by its opaque ID.
func (r *OrderRepository) FindByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order row.
func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Transition moves the order from one status to another, applying the extra
// updates atomically. The WHERE clause on the current status makes it a
// compare-and-set: a second identical callback finds the row already moved
// and changes nothing. Returns whether this call won the transition.
func (r *OrderRepository) Transition(id, from, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Update updates order fields without touching the status.
func (r *OrderRepository) Update(id string, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// FindOpenByBuyer returns the buyer's most recent non-terminal order.
func (r *OrderRepository) FindOpenByBuyer(buyerID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Where("buyer_id = ? AND status NOT IN ?", buyerID, []string{models.OrderFinalized, models.OrderRejected}).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes an order row.
func (r *OrderRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Order{}).Error
}

// --- Pending native invoices ---

// CreatePendingInvoice records an outstanding Telegram invoice message.
func (r *OrderRepository) CreatePendingInvoice(inv *models.PendingInvoice) error {
	return r.db.Create(inv).Error
}

// DeletePendingInvoice removes the record once paid or expired.
func (r *OrderRepository) DeletePendingInvoice(id int64) error {
	return r.db.Where("id = ?", id).Delete(&models.PendingInvoice{}).Error
}

// DeletePendingInvoicesByUser clears all outstanding invoices for a user.
func (r *OrderRepository) DeletePendingInvoicesByUser(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.PendingInvoice{}).Error
}

// FindExpiredInvoices returns invoices older than the cutoff.
func (r *OrderRepository) FindExpiredInvoices(cutoff time.Time) ([]models.PendingInvoice, error) {
	var invoices []models.PendingInvoice
	err := r.db.Where("created_at < ?", cutoff).Find(&invoices).Error
	return invoices, err
}
