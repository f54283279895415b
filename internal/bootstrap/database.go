package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// MigrateAndSeed ensures required tables exist and inserts baseline rows for
// the settings key-value table.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := seedDefaults(db); err != nil {
		return fmt.Errorf("seed defaults failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Product{},
		&models.Wallet{},
		&models.PaymentMethod{},
		&models.Order{},
		&models.Sale{},
		&models.PendingInvoice{},
		&models.RequiredChannel{},
		&models.RequiredBot{},
		&models.JoinRequest{},
		&models.Setting{},
	}
}

func seedDefaults(db *gorm.DB) error {
	defaults := map[string]string{
		"support_contact": "",
		"welcome_text":    "",
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for key, value := range defaults {
			var count int64
			if err := tx.Model(&models.Setting{}).Where("`key` = ?", key).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				if err := tx.Create(&models.Setting{Key: key, Value: value}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
