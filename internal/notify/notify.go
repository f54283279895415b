package notify

import (
	"fmt"

	"go.uber.org/zap"

	"tovarbot/internal/ledger"
	"tovarbot/internal/models"
	"tovarbot/internal/pkg/utils"
)

// Sender is the cross-chat delivery surface. Implemented by
// pkg/telegram.BotAPI.
type Sender interface {
	SendMessage(chatID int64, text string, replyMarkup interface{}) error
	SendPhoto(chatID int64, photo, caption string, replyMarkup interface{}) (int, error)
	EditMessageCaption(chatID int64, messageID int, caption string, replyMarkup interface{}) error
}

// Notifier fans order events out to the fixed identities around a sale:
// the reviewer who vets receipts, the operator who ships, the admin list
// and the order channel. Every delivery is best-effort; a failed send is
// logged and never blocks the flow that triggered it.
type Notifier struct {
	api          Sender
	log          *zap.Logger
	adminIDs     []int64
	reviewerID   int64
	operatorID   int64
	orderChannel int64
}

func New(api Sender, log *zap.Logger, adminIDs []int64, reviewerID, operatorID, orderChannel int64) *Notifier {
	return &Notifier{
		api:          api,
		log:          log,
		adminIDs:     adminIDs,
		reviewerID:   reviewerID,
		operatorID:   operatorID,
		orderChannel: orderChannel,
	}
}

func (n *Notifier) ReviewerID() int64 { return n.reviewerID }
func (n *Notifier) OperatorID() int64 { return n.operatorID }

// ReviewCaption renders the receipt caption shown to the reviewer. Decision
// stamps are appended to this same text later.
func ReviewCaption(o *models.Order, p *models.Product, buyer *models.User) string {
	return fmt.Sprintf(
		"🧾 <b>Новый чек на проверку</b>\n\n"+
			"Заказ: <code>%s</code>\n"+
			"Покупатель: %s (<code>%d</code>)\n"+
			"Товар: %s\n"+
			"Кошелёк: %s\n"+
			"Заявленная сумма: <b>%s</b>",
		o.ID, buyer.DisplayName(), buyer.ID, p.Name, o.PaymentLabel, utils.FormatNumber(o.DeclaredAmount))
}

// SendReceiptForReview forwards the buyer's receipt photo to the reviewer
// and returns the message id so the decision can be stamped onto it.
func (n *Notifier) SendReceiptForReview(o *models.Order, p *models.Product, buyer *models.User, markup interface{}) (int, error) {
	return n.api.SendPhoto(n.reviewerID, o.ReceiptFileID, ReviewCaption(o, p, buyer), markup)
}

// StampReviewDecision rewrites the reviewer's receipt caption with the
// outcome and removes the decision buttons.
func (n *Notifier) StampReviewDecision(o *models.Order, p *models.Product, buyer *models.User, stamp string) {
	if o.ReviewChatID == 0 || o.ReviewMessageID == 0 {
		return
	}
	caption := ReviewCaption(o, p, buyer) + "\n\n" + stamp
	if err := n.api.EditMessageCaption(o.ReviewChatID, o.ReviewMessageID, caption, nil); err != nil {
		n.log.Warn("stamp review decision failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// NotifyBuyer delivers a flow message to the buyer's private chat.
func (n *Notifier) NotifyBuyer(buyerID int64, text string, markup interface{}) {
	if err := n.api.SendMessage(buyerID, text, markup); err != nil {
		n.log.Warn("buyer notification failed", zap.Int64("buyer_id", buyerID), zap.Error(err))
	}
}

// BroadcastSale announces a finalized sale to the admins, the operator and
// the order channel. The channel copy carries the fulfill button; the
// sheets flag tells admins whether the spreadsheet mirror went through.
func (n *Notifier) BroadcastSale(sale *models.Sale, p *models.Product, mirror ledger.MirrorStatus, fulfillMarkup interface{}) {
	var sheetsFlag string
	switch mirror {
	case ledger.MirrorDone:
		sheetsFlag = "✅ таблица обновлена"
	case ledger.MirrorFailed:
		sheetsFlag = "❌ таблица НЕ обновлена"
	default:
		sheetsFlag = "таблица не подключена"
	}
	text := fmt.Sprintf(
		"🛒 <b>Новая продажа</b>\n\n"+
			"Заказ: <code>%s</code>\n"+
			"Товар: %s\n"+
			"Цена: %s\n"+
			"Оплачено: <b>%s</b>\n"+
			"Остаток: <b>%s</b>\n"+
			"Оплата: %s\n\n"+
			"Имя: %s\n"+
			"Телефон: %s\n"+
			"Адрес: %s\n\n%s",
		sale.OrderID, p.Name,
		utils.FormatNumber(sale.ProductPrice),
		utils.FormatNumber(sale.PaidAmount),
		utils.FormatNumber(sale.RemainingAmount),
		sale.PaymentLabel,
		sale.CustomerName, sale.CustomerPhone, sale.CustomerAddress,
		sheetsFlag)

	for _, adminID := range n.adminIDs {
		if err := n.api.SendMessage(adminID, text, nil); err != nil {
			n.log.Warn("admin sale notification failed", zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
	if n.operatorID != 0 {
		if err := n.api.SendMessage(n.operatorID, text, fulfillMarkup); err != nil {
			n.log.Warn("operator sale notification failed", zap.Error(err))
		}
	}
	if n.orderChannel != 0 {
		if err := n.api.SendMessage(n.orderChannel, text, fulfillMarkup); err != nil {
			n.log.Warn("order channel notification failed", zap.Error(err))
		}
	}
}

// BroadcastFulfillment tells the admins and the order channel that the
// operator marked the sale handled.
func (n *Notifier) BroadcastFulfillment(sale *models.Sale, p *models.Product) {
	text := fmt.Sprintf(
		"📦 Заказ <code>%s</code> (%s) отмечен выполненным.",
		sale.OrderID, p.Name)
	for _, adminID := range n.adminIDs {
		if err := n.api.SendMessage(adminID, text, nil); err != nil {
			n.log.Warn("admin fulfillment notification failed", zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
	if n.orderChannel != 0 {
		if err := n.api.SendMessage(n.orderChannel, text, nil); err != nil {
			n.log.Warn("order channel fulfillment notification failed", zap.Error(err))
		}
	}
}

// SendDailySummary delivers the daily sales digest to every admin.
func (n *Notifier) SendDailySummary(count, total int64) {
	text := fmt.Sprintf(
		"📊 <b>Итог за сутки</b>\n\nПродаж: %d\nСумма: %s",
		count, utils.FormatNumber(total))
	for _, adminID := range n.adminIDs {
		if err := n.api.SendMessage(adminID, text, nil); err != nil {
			n.log.Warn("daily summary failed", zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}
