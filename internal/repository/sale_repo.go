package repository

import (
	"time"

	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// SaleRepository handles the immutable sales ledger.
type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts a ledger row. The unique index on order_id rejects a second
// write for the same order.
func (r *SaleRepository) Create(sale *models.Sale) error {
	return r.db.Create(sale).Error
}

// FindByOrderID finds the ledger row for an order.
func (r *SaleRepository) FindByOrderID(orderID string) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.Where("order_id = ?", orderID).First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindAll returns sales with pagination, newest first.
func (r *SaleRepository) FindAll(limit, page int) ([]models.Sale, int64, error) {
	var sales []models.Sale
	var total int64

	db := r.db.Model(&models.Sale{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit
	if err := db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

// SetFulfillStatus is the only mutation allowed on a ledger row.
func (r *SaleRepository) SetFulfillStatus(orderID, status string) error {
	return r.db.Model(&models.Sale{}).Where("order_id = ?", orderID).
		Update("fulfill_status", status).Error
}

// MarkSheetsMirrored flags a row as copied to the spreadsheet.
func (r *SaleRepository) MarkSheetsMirrored(orderID string) error {
	return r.db.Model(&models.Sale{}).Where("order_id = ?", orderID).
		Update("sheets_mirrored", true).Error
}

// SummarySince aggregates sales recorded after the cutoff.
func (r *SaleRepository) SummarySince(cutoff time.Time) (count int64, total int64, err error) {
	type row struct {
		Count int64
		Total int64
	}
	var res row
	err = r.db.Model(&models.Sale{}).
		Select("COUNT(*) AS count, COALESCE(SUM(paid_amount), 0) AS total").
		Where("created_at >= ?", cutoff).
		Scan(&res).Error
	return res.Count, res.Total, err
}
