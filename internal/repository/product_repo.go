package repository

import (
	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// ProductRepository handles catalog database operations.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByID finds a product by ID.
func (r *ProductRepository) FindByID(id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActive returns all active products, newest first.
func (r *ProductRepository) FindActive() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ?", true).Order("created_at DESC").Find(&products).Error
	return products, err
}

// FindAll returns products with pagination.
func (r *ProductRepository) FindAll(limit, page int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	db := r.db.Model(&models.Product{})
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
	if err := db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update updates product fields.
func (r *ProductRepository) Update(id int64, updates map[string]interface{}) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a product.
func (r *ProductRepository) Delete(id int64) error {
	return r.db.Where("id = ?", id).Delete(&models.Product{}).Error
}
