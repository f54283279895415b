package repository

import (
	"errors"

	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// SettingRepository handles the generic key-value settings table.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the value for a key, or "" when unset.
func (r *SettingRepository) Get(key string) (string, error) {
	var setting models.Setting
	err := r.db.Where("`key` = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Set inserts or updates a key.
func (r *SettingRepository) Set(key, value string) error {
	return r.db.Save(&models.Setting{Key: key, Value: value}).Error
}
