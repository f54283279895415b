package models

import "time"

// Product maps to the `products` table.
type Product struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:512" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Price       int64     `gorm:"column:price;default:0" json:"price"`
	MediaType   string    `gorm:"column:media_type;size:16" json:"media_type"` // "photo" or "video"
	MediaFileID string    `gorm:"column:media_file_id;size:512" json:"media_file_id"`
	Active      bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedBy   int64     `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}
