package repository

import (
	"errors"

	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// UserRepository handles all user database operations.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID finds a user by Telegram user ID.
func (r *UserRepository) FindByID(userID int64) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Upsert creates the user if missing, otherwise refreshes username/full
// name. The second return reports whether the user was just created.
func (r *UserRepository) Upsert(user *models.User) (*models.User, bool, error) {
	existing, err := r.FindByID(user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.Create(user); err != nil {
			return nil, false, err
		}
		return user, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	updates := map[string]interface{}{}
	if user.Username != "" && user.Username != existing.Username {
		updates["username"] = user.Username
	}
	if user.FullName != "" && user.FullName != existing.FullName {
		updates["full_name"] = user.FullName
	}
	if len(updates) > 0 {
		if err := r.Update(user.ID, updates); err != nil {
			return nil, false, err
		}
		existing.Username = user.Username
		existing.FullName = user.FullName
	}
	return existing, false, nil
}

// Update updates user fields.
func (r *UserRepository) Update(userID int64, updates map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// IsBlocked reports whether a user is blocked. Unknown users are not blocked.
func (r *UserRepository) IsBlocked(userID int64) (bool, error) {
	var user models.User
	err := r.db.Select("is_blocked").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Blocked, nil
}

// SetBlocked blocks or unblocks a user.
func (r *UserRepository) SetBlocked(userID int64, blocked bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", blocked).Error
}

// IncrementReferralCount credits the referrer for a new signup.
func (r *UserRepository) IncrementReferralCount(userID int64) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("referral_count", gorm.Expr("referral_count + 1")).Error
}

// Count returns the total number of registered users.
func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
