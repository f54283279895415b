package repository

import (
	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// WalletRepository handles card-transfer destinations and invoice providers.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// FindByID finds a wallet by ID.
func (r *WalletRepository) FindByID(id int64) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("id = ?", id).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// FindAll returns all wallets.
func (r *WalletRepository) FindAll() ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.Order("id").Find(&wallets).Error
	return wallets, err
}

// Create inserts a new wallet.
func (r *WalletRepository) Create(wallet *models.Wallet) error {
	return r.db.Create(wallet).Error
}

// Delete removes a wallet.
func (r *WalletRepository) Delete(id int64) error {
	return r.db.Where("id = ?", id).Delete(&models.Wallet{}).Error
}

// FindMethodByID finds a Telegram-invoice payment method.
func (r *WalletRepository) FindMethodByID(id int64) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.Where("id = ?", id).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// FindMethods returns all Telegram-invoice payment methods.
func (r *WalletRepository) FindMethods() ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.Order("id").Find(&methods).Error
	return methods, err
}
