package models

import "time"

// Wallet maps to the `wallets` table: a card-transfer destination shown to
// buyers who pay manually.
type Wallet struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;size:256" json:"name"`
	CardNumber string    `gorm:"column:card_number;size:64" json:"card_number"`
	OwnerName  string    `gorm:"column:owner_name;size:256" json:"owner_name"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// PaymentMethod maps to the `payment_methods` table: a Telegram-invoice
// provider descriptor (name, provider token, card image).
type PaymentMethod struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:256" json:"name"`
	Token     string    `gorm:"column:payment_token;size:512" json:"payment_token"`
	ImageURL  string    `gorm:"column:image_url;size:1024" json:"image_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
