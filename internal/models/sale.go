package models

import "time"

// Sale maps to the `sales` table: the immutable ledger row written exactly
// once when an order is finalized. Only FulfillStatus changes afterwards,
// via the fulfillment operator.
type Sale struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID          string    `gorm:"column:order_id;size:64;uniqueIndex" json:"order_id"`
	ProductID        int64     `gorm:"column:product_id" json:"product_id"`
	BuyerID          int64     `gorm:"column:buyer_id;index" json:"buyer_id"`
	ProductPrice     int64     `gorm:"column:product_price" json:"product_price"`
	PaidAmount       int64     `gorm:"column:paid_amount" json:"paid_amount"`
	RemainingAmount  int64     `gorm:"column:remaining_amount" json:"remaining_amount"`
	PaymentLabel     string    `gorm:"column:payment_label;size:64" json:"payment_label"`
	CustomerName     string    `gorm:"column:customer_name;size:256" json:"customer_name"`
	CustomerPhone    string    `gorm:"column:customer_phone;size:64" json:"customer_phone"`
	CustomerAddress  string    `gorm:"column:customer_address;size:1024" json:"customer_address"`
	FulfillStatus    string    `gorm:"column:fulfill_status;size:32;default:new" json:"fulfill_status"`
	SheetsMirrored   bool      `gorm:"column:sheets_mirrored;default:false" json:"sheets_mirrored"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Sale) TableName() string {
	return "sales"
}

const (
	FulfillNew       = "new"
	FulfillConfirmed = "confirmed"
)
