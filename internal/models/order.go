package models

import "time"

// Order status values. Transitions between them are compare-and-set on the
// current status so a redelivered callback cannot apply twice.
const (
	OrderAwaitingReceipt       = "awaiting_receipt"
	OrderPendingReview         = "pending_review"
	OrderAwaitingOverrideInput = "awaiting_override_amount"
	OrderAwaitingOverrideOK    = "awaiting_override_confirmation"
	OrderApproved              = "approved"
	OrderRejected              = "rejected"
	OrderAwaitingBuyerDetails  = "awaiting_buyer_details"
	OrderConfirmingDetails     = "confirming_details"
	OrderFinalized             = "finalized"
)

// Order maps to the `orders` table: one row per in-flight purchase, created
// when the buyer picks a wallet for a product.
type Order struct {
	ID              string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	BuyerID         int64     `gorm:"column:buyer_id;index" json:"buyer_id"`
	ProductID       int64     `gorm:"column:product_id" json:"product_id"`
	WalletID        int64     `gorm:"column:wallet_id;default:0" json:"wallet_id"` // 0 for invoice payments
	DeclaredAmount  int64     `gorm:"column:declared_amount" json:"declared_amount"`
	ConfirmedAmount int64     `gorm:"column:confirmed_amount;default:0" json:"confirmed_amount"`
	OverrideAmount  int64     `gorm:"column:override_amount;default:0" json:"override_amount"`
	ReceiptFileID   string    `gorm:"column:receipt_file_id;size:512" json:"receipt_file_id"`
	Status          string    `gorm:"column:status;size:64;index" json:"status"`
	PaymentLabel    string    `gorm:"column:payment_label;size:64" json:"payment_label"`
	ReviewChatID    int64     `gorm:"column:review_chat_id;default:0" json:"review_chat_id"`
	ReviewMessageID int       `gorm:"column:review_message_id;default:0" json:"review_message_id"`
	CustomerName    string    `gorm:"column:customer_name;size:256" json:"customer_name"`
	CustomerPhone   string    `gorm:"column:customer_phone;size:64" json:"customer_phone"`
	CustomerAddress string    `gorm:"column:customer_address;size:1024" json:"customer_address"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// RemainingBalance recomputes product price minus the confirmed amount.
// Positive means the buyer still owes on delivery, negative is an
// overpayment/discount. Never cached on the row.
func (o *Order) RemainingBalance(productPrice int64) int64 {
	return productPrice - o.ConfirmedAmount
}

// PendingInvoice maps to the `pending_invoices` table: a Telegram-native
// invoice message awaiting payment, expired by the scheduler.
type PendingInvoice struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;index" json:"user_id"`
	ProductID int64     `gorm:"column:product_id" json:"product_id"`
	MethodID  int64     `gorm:"column:method_id" json:"method_id"`
	MessageID int       `gorm:"column:message_id" json:"message_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PendingInvoice) TableName() string {
	return "pending_invoices"
}
