package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"tovarbot/internal/models"
	"tovarbot/internal/pkg/utils"
	"tovarbot/internal/state"
)

// Native invoice payments settle instantly through the provider, so the
// order is born approved and goes straight to the details flow. The
// pending_invoices table lets the expiry job clean up invoices nobody paid.

const invoiceCurrency = "UZS"

func invoicePayload(productID, methodID int64) string {
	return fmt.Sprintf("inv|%d|%d", productID, methodID)
}

func parseInvoicePayload(payload string) (productID, methodID int64, ok bool) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 || parts[0] != "inv" {
		return 0, 0, false
	}
	productID = utils.ParseInt64(parts[1], 0)
	methodID = utils.ParseInt64(parts[2], 0)
	return productID, methodID, productID != 0 && methodID != 0
}

func (b *Bot) startInvoice(c tele.Context, action Action) error {
	buyerID := c.Sender().ID
	_ = c.Respond()

	if !b.requireGate(c, buyerID, false) {
		return nil
	}

	p, err := b.repos.Product.FindByID(action.ProductID)
	if err != nil || !p.Active {
		return c.Send("Товар недоступен.")
	}
	method, err := b.repos.Wallet.FindMethodByID(action.RefID)
	if err != nil {
		return c.Send("Этот способ оплаты сейчас недоступен.")
	}

	invoice := &tele.Invoice{
		Title:       p.Name,
		Description: fmt.Sprintf("Оплата товара «%s»", p.Name),
		Payload:     invoicePayload(p.ID, method.ID),
		Currency:    invoiceCurrency,
		Token:       method.Token,
		Prices: []tele.Price{
			{Label: p.Name, Amount: int(p.Price * 100)},
		},
	}

	msg, err := b.tb.Send(&tele.User{ID: buyerID}, invoice)
	if err != nil {
		b.logger.Error("send invoice failed", zap.Int64("product_id", p.ID), zap.Error(err))
		return c.Send("Не удалось выставить счёт, попробуйте позже.")
	}

	if err := b.repos.Order.CreatePendingInvoice(&models.PendingInvoice{
		UserID:    buyerID,
		ProductID: p.ID,
		MethodID:  method.ID,
		MessageID: msg.ID,
	}); err != nil {
		b.logger.Warn("record pending invoice failed", zap.Error(err))
	}

	return nil
}

func (b *Bot) handleCheckout(c tele.Context) error {
	pre := c.PreCheckoutQuery()
	if pre == nil {
		return nil
	}

	productID, _, ok := parseInvoicePayload(pre.Payload)
	if !ok {
		return b.tb.Accept(pre, "Счёт устарел, оформите заказ заново.")
	}
	p, err := b.repos.Product.FindByID(productID)
	if err != nil || !p.Active {
		return b.tb.Accept(pre, "Товар больше не продаётся.")
	}

	return b.tb.Accept(pre)
}

func (b *Bot) handlePayment(c tele.Context) error {
	payment := c.Message().Payment
	if payment == nil {
		return nil
	}
	buyerID := c.Sender().ID

	if err := b.repos.Order.DeletePendingInvoicesByUser(buyerID); err != nil {
		b.logger.Warn("clear pending invoices failed", zap.Int64("buyer_id", buyerID), zap.Error(err))
	}

	productID, methodID, ok := parseInvoicePayload(payment.Payload)
	if !ok {
		b.logger.Error("successful payment with unknown payload",
			zap.Int64("buyer_id", buyerID), zap.String("payload", payment.Payload))
		return c.Send("Оплата получена. Свяжитесь с администратором для оформления.")
	}

	p, err := b.repos.Product.FindByID(productID)
	if err != nil {
		b.logger.Error("paid product missing", zap.Int64("product_id", productID))
		return c.Send("Оплата получена. Свяжитесь с администратором для оформления.")
	}

	label := "Счёт " + invoiceCurrency
	if method, err := b.repos.Wallet.FindMethodByID(methodID); err == nil {
		label = method.Name
	}

	// Provider amounts are in minor units.
	paid := int64(payment.Total) / 100

	o := &models.Order{
		ID:              utils.NewOrderID(),
		BuyerID:         buyerID,
		ProductID:       p.ID,
		DeclaredAmount:  paid,
		ConfirmedAmount: paid,
		Status:          models.OrderApproved,
		PaymentLabel:    label,
	}
	if err := b.repos.Order.Create(o); err != nil {
		b.logger.Error("create invoice order failed", zap.Int64("buyer_id", buyerID), zap.Error(err))
		return c.Send("Оплата получена. Свяжитесь с администратором для оформления.")
	}

	// Same details flow as a reviewed wallet payment.
	o2, err := b.machine.BeginDetails(o.ID)
	if err != nil {
		b.logger.Error("begin details after invoice failed", zap.String("order_id", o.ID), zap.Error(err))
		return c.Send("Оплата получена. Свяжитесь с администратором для оформления.")
	}

	conv := &state.Conversation{Step: state.StepName, OrderID: o2.ID}
	if err := b.states.Set(context.Background(), state.For(buyerID), conv); err != nil {
		b.logger.Error("save buyer conversation failed", zap.Error(err))
	}

	return c.Send("🎉 Оплата получена!\n\nДля оформления доставки введите <b>имя получателя</b>:")
}
