package models

import "time"

// User maps to the `users` table.
// Primary key is the Telegram user ID.
type User struct {
	ID            int64     `gorm:"column:id;primaryKey" json:"id"`
	Username      string    `gorm:"column:username;size:256" json:"username"`
	FullName      string    `gorm:"column:full_name;size:512" json:"full_name"`
	Balance       int64     `gorm:"column:balance;default:0" json:"balance"`
	PhoneNumber   string    `gorm:"column:phone_number;size:64" json:"phone_number"`
	CountryCode   string    `gorm:"column:country_code;size:8" json:"country_code"`
	ReferrerID    int64     `gorm:"column:referrer_id;default:0" json:"referrer_id"`
	ReferralCount int       `gorm:"column:referral_count;default:0" json:"referral_count"`
	Blocked       bool      `gorm:"column:is_blocked;default:false" json:"is_blocked"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName prefers the stored full name, falling back to @username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "—"
}
