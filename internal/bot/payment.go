package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"tovarbot/internal/models"
	"tovarbot/internal/order"
	"tovarbot/internal/pkg/utils"
	"tovarbot/internal/state"
)

// ── Wallet order ──────────────────────────────────────────────────────

func (b *Bot) startWalletOrder(c tele.Context, action Action) error {
	buyerID := c.Sender().ID
	_ = c.Respond()

	if !b.requireGate(c, buyerID, false) {
		return nil
	}

	if open, err := b.repos.Order.FindOpenByBuyer(buyerID); err == nil && open != nil {
		return c.Send(fmt.Sprintf(
			"У вас уже есть незавершённый заказ <code>%s</code>. Завершите или отмените его.",
			open.ID))
	}

	p, err := b.repos.Product.FindByID(action.ProductID)
	if err != nil || !p.Active {
		return c.Send("Товар недоступен.")
	}
	w, err := b.repos.Wallet.FindByID(action.RefID)
	if err != nil {
		return c.Send("Этот способ оплаты сейчас недоступен.")
	}

	o, err := b.machine.Open(buyerID, p, w.ID, walletLabel(w))
	if err != nil {
		b.logger.Error("open wallet order failed", zap.Int64("buyer_id", buyerID), zap.Error(err))
		return c.Send("Не удалось создать заказ, попробуйте позже.")
	}

	return c.Send(fmt.Sprintf(
		"💳 <b>Оплата переводом</b>\n\n"+
			"Заказ: <code>%s</code>\n"+
			"Товар: %s\n\n"+
			"Переведите <b>%s</b> на карту:\n"+
			"<code>%s</code>\n%s\n\n"+
			"После перевода нажмите «Я оплатил» и отправьте фото чека.",
		o.ID, p.Name, formatAmount(o.DeclaredAmount), w.CardNumber, w.OwnerName),
		b.keyboard.WalletOrder(o.ID))
}

func walletLabel(w *models.Wallet) string {
	card := w.CardNumber
	if len(card) > 4 {
		card = "****" + card[len(card)-4:]
	}
	return w.Name + " " + card
}

func (b *Bot) handlePaidButton(c tele.Context, action Action) error {
	buyerID := c.Sender().ID

	o, err := b.repos.Order.FindByID(action.OrderID)
	if err != nil || o.BuyerID != buyerID {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ не найден."})
	}
	if o.Status != models.OrderAwaitingReceipt {
		return c.Respond(&tele.CallbackResponse{Text: "Чек по этому заказу уже получен."})
	}

	conv := &state.Conversation{Step: state.StepAwaitReceipt, OrderID: o.ID}
	if err := b.states.Set(context.Background(), state.For(buyerID), conv); err != nil {
		b.logger.Error("save conversation failed", zap.Int64("buyer_id", buyerID), zap.Error(err))
	}

	_ = c.Respond()
	return c.Send(receiptPrompt)
}

func (b *Bot) handleCancelOrder(c tele.Context, action Action) error {
	buyerID := c.Sender().ID

	o, err := b.repos.Order.FindByID(action.OrderID)
	if err != nil || o.BuyerID != buyerID {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ не найден."})
	}

	if _, err := b.machine.Cancel(action.OrderID); err != nil {
		if errors.Is(err, order.ErrConflict) {
			return c.Respond(&tele.CallbackResponse{Text: "Заказ уже в работе, отмена невозможна."})
		}
		b.logger.Error("cancel order failed", zap.String("order_id", action.OrderID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже."})
	}

	_ = b.states.Clear(context.Background(), state.For(buyerID))
	_ = c.Respond(&tele.CallbackResponse{Text: "Заказ отменён."})
	return c.Send("Заказ отменён. Возвращайтесь в каталог!", b.keyboard.MainMenu())
}

// ── Receipt photo ─────────────────────────────────────────────────────

const receiptPrompt = "📸 Отправьте фото чека одним сообщением."

// handleNonPhotoReceipt reprompts a buyer who sends the receipt as a
// document or video; review works only with photos.
func (b *Bot) handleNonPhotoReceipt(c tele.Context) error {
	conv, err := b.states.Get(context.Background(), state.For(c.Sender().ID))
	if err != nil || conv.Step != state.StepAwaitReceipt {
		return nil
	}
	return c.Send(receiptPrompt)
}

func (b *Bot) handlePhoto(c tele.Context) error {
	buyerID := c.Sender().ID

	conv, err := b.states.Get(context.Background(), state.For(buyerID))
	if err != nil || conv.Step != state.StepAwaitReceipt || conv.OrderID == "" {
		return nil
	}

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	o, err := b.machine.AttachReceipt(conv.OrderID, photo.FileID)
	if err != nil {
		if errors.Is(err, order.ErrConflict) {
			return c.Send("Чек по этому заказу уже на проверке.")
		}
		b.logger.Error("attach receipt failed", zap.String("order_id", conv.OrderID), zap.Error(err))
		return c.Send("Не удалось принять чек, попробуйте ещё раз.")
	}

	_ = b.states.Clear(context.Background(), state.For(buyerID))

	p, perr := b.repos.Product.FindByID(o.ProductID)
	buyer, uerr := b.repos.User.FindByID(o.BuyerID)
	if perr != nil || uerr != nil {
		b.logger.Error("load order context failed", zap.String("order_id", o.ID))
		return c.Send("✅ Чек получен и отправлен на проверку.")
	}

	msgID, err := b.notifier.SendReceiptForReview(o, p, buyer, b.keyboard.ReviewDecision(o.ID))
	if err != nil {
		b.logger.Error("forward receipt failed", zap.String("order_id", o.ID), zap.Error(err))
	} else if err := b.machine.SetReviewMessage(o.ID, b.notifier.ReviewerID(), msgID); err != nil {
		b.logger.Warn("remember review message failed", zap.String("order_id", o.ID), zap.Error(err))
	}

	return c.Send("✅ Чек получен и отправлен на проверку. Мы сообщим о результате.")
}

// ── Review decisions ──────────────────────────────────────────────────

// canReview limits decision callbacks to the reviewer and admins.
func (b *Bot) canReview(userID int64) bool {
	return userID == b.notifier.ReviewerID() || b.cfg.Bot.IsAdmin(userID)
}

func (b *Bot) handleApprove(c tele.Context, action Action) error {
	if !b.canReview(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно прав."})
	}

	o, err := b.machine.Approve(action.OrderID)
	if err != nil {
		return b.respondDecisionError(c, action.OrderID, err)
	}

	p, buyer := b.orderContext(o)
	if p != nil && buyer != nil {
		b.notifier.StampReviewDecision(o, p, buyer, fmt.Sprintf(
			"✅ Подтверждено на сумму <b>%s</b>", formatAmount(o.ConfirmedAmount)))
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "Оплата подтверждена."})

	b.beginDetailsFlow(o)
	return nil
}

func (b *Bot) handleReject(c tele.Context, action Action) error {
	if !b.canReview(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно прав."})
	}

	o, err := b.machine.Reject(action.OrderID)
	if err != nil {
		return b.respondDecisionError(c, action.OrderID, err)
	}

	p, buyer := b.orderContext(o)
	if p != nil && buyer != nil {
		b.notifier.StampReviewDecision(o, p, buyer, "❌ Отклонено")
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "Чек отклонён."})

	b.notifier.NotifyBuyer(o.BuyerID,
		"❌ Ваш чек не прошёл проверку. Если это ошибка, свяжитесь с администратором или оформите заказ заново.", nil)
	return nil
}

func (b *Bot) handleOverrideStart(c tele.Context, action Action) error {
	reviewerID := c.Sender().ID
	if !b.canReview(reviewerID) {
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно прав."})
	}

	if _, err := b.machine.RequestOverride(action.OrderID); err != nil {
		return b.respondDecisionError(c, action.OrderID, err)
	}

	conv := &state.Conversation{Step: state.StepOverrideAmount, OrderID: action.OrderID}
	if err := b.states.Set(context.Background(), state.For(reviewerID), conv); err != nil {
		b.logger.Error("save reviewer conversation failed", zap.Error(err))
	}

	min, max := b.machine.OverrideBounds()
	_ = c.Respond()
	return c.Send(fmt.Sprintf(
		"✏️ Введите фактическую сумму по чеку (от %s до %s):",
		formatAmount(min), formatAmount(max)))
}

// handleOverrideAmountText runs in the reviewer's chat; the order id comes
// from the reviewer's conversation, not from the message.
func (b *Bot) handleOverrideAmountText(c tele.Context, conv *state.Conversation, text string) error {
	reviewerID := c.Sender().ID
	if !b.canReview(reviewerID) {
		_ = b.states.Clear(context.Background(), state.For(reviewerID))
		return nil
	}

	amount, err := utils.ParseAmount(text)
	if err != nil {
		return c.Send("Введите сумму числом, например: 45000")
	}

	o, err := b.machine.SubmitOverrideAmount(conv.OrderID, amount)
	if err != nil {
		if errors.Is(err, order.ErrAmountOutOfRange) {
			min, max := b.machine.OverrideBounds()
			return c.Send(fmt.Sprintf(
				"Сумма вне допустимых пределов (%s – %s). Введите ещё раз:",
				formatAmount(min), formatAmount(max)))
		}
		if errors.Is(err, order.ErrConflict) {
			_ = b.states.Clear(context.Background(), state.For(reviewerID))
			return c.Send("Заказ уже обработан.")
		}
		b.logger.Error("submit override failed", zap.String("order_id", conv.OrderID), zap.Error(err))
		return c.Send("Ошибка, попробуйте ещё раз.")
	}

	_ = b.states.Clear(context.Background(), state.For(reviewerID))

	price := o.OverrideAmount
	if p, perr := b.repos.Product.FindByID(o.ProductID); perr == nil {
		price = p.Price
	}
	return c.Send(overridePrompt(o.OverrideAmount, price), b.keyboard.OverrideConfirm(o.ID))
}

// overridePrompt asks the reviewer to confirm the corrected sum and shows
// what the buyer still owes against the product price.
func overridePrompt(amount, price int64) string {
	text := fmt.Sprintf("Подтвердить оплату на сумму <b>%s</b>?", formatAmount(amount))
	if remaining := price - amount; remaining > 0 {
		text += fmt.Sprintf("\nОстаток к оплате при получении: <b>%s</b>", formatAmount(remaining))
	}
	return text
}

func (b *Bot) handleOverrideConfirm(c tele.Context, action Action) error {
	if !b.canReview(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно прав."})
	}

	o, err := b.machine.ConfirmOverride(action.OrderID)
	if err != nil {
		return b.respondDecisionError(c, action.OrderID, err)
	}

	_ = c.Edit(fmt.Sprintf("✅ Подтверждено на сумму <b>%s</b>.", formatAmount(o.ConfirmedAmount)))

	p, buyer := b.orderContext(o)
	if p != nil && buyer != nil {
		b.notifier.StampReviewDecision(o, p, buyer, fmt.Sprintf(
			"✅ Подтверждено на скорректированную сумму <b>%s</b>", formatAmount(o.ConfirmedAmount)))
	}

	b.beginDetailsFlow(o)
	return c.Respond()
}

func (b *Bot) handleOverrideRetry(c tele.Context, action Action) error {
	reviewerID := c.Sender().ID
	if !b.canReview(reviewerID) {
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно прав."})
	}

	if _, err := b.machine.RetryOverride(action.OrderID); err != nil {
		return b.respondDecisionError(c, action.OrderID, err)
	}

	conv := &state.Conversation{Step: state.StepOverrideAmount, OrderID: action.OrderID}
	if err := b.states.Set(context.Background(), state.For(reviewerID), conv); err != nil {
		b.logger.Error("save reviewer conversation failed", zap.Error(err))
	}

	_ = c.Edit("✏️ Введите сумму заново:")
	return c.Respond()
}

func (b *Bot) respondDecisionError(c tele.Context, orderID string, err error) error {
	if errors.Is(err, order.ErrConflict) {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ уже обработан."})
	}
	b.logger.Error("review decision failed", zap.String("order_id", orderID), zap.Error(err))
	return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже."})
}

// beginDetailsFlow moves an approved order into the buyer-details steps and
// pings the buyer. The approval stands even if the ping fails; the buyer
// can resume from "Мои заказы".
func (b *Bot) beginDetailsFlow(o *models.Order) {
	o2, err := b.machine.BeginDetails(o.ID)
	if err != nil {
		b.logger.Error("begin details failed", zap.String("order_id", o.ID), zap.Error(err))
		return
	}

	conv := &state.Conversation{Step: state.StepName, OrderID: o2.ID}
	if err := b.states.Set(context.Background(), state.For(o2.BuyerID), conv); err != nil {
		b.logger.Error("save buyer conversation failed", zap.Int64("buyer_id", o2.BuyerID), zap.Error(err))
	}

	b.notifier.NotifyBuyer(o2.BuyerID,
		"🎉 Оплата подтверждена!\n\nДля оформления доставки введите <b>имя получателя</b>:", nil)
}

// ── Fulfillment ───────────────────────────────────────────────────────

func (b *Bot) handleFulfill(c tele.Context, action Action) error {
	senderID := c.Sender().ID
	if senderID != b.notifier.OperatorID() && !b.cfg.Bot.IsAdmin(senderID) {
		return c.Respond(&tele.CallbackResponse{Text: "Кнопка только для оператора."})
	}

	sale, err := b.repos.Sale.FindByOrderID(action.OrderID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Продажа не найдена."})
	}
	if sale.FulfillStatus == models.FulfillConfirmed {
		return c.Respond(&tele.CallbackResponse{Text: "Уже отмечено выполненным."})
	}

	if err := b.repos.Sale.SetFulfillStatus(action.OrderID, models.FulfillConfirmed); err != nil {
		b.logger.Error("set fulfill status failed", zap.String("order_id", action.OrderID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже."})
	}

	p, err := b.repos.Product.FindByID(sale.ProductID)
	if err == nil {
		b.notifier.BroadcastFulfillment(sale, p)
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "Отмечено выполненным."})
	return nil
}

// orderContext loads the product and buyer for notification text.
func (b *Bot) orderContext(o *models.Order) (*models.Product, *models.User) {
	p, err := b.repos.Product.FindByID(o.ProductID)
	if err != nil {
		b.logger.Warn("load product failed", zap.Int64("product_id", o.ProductID), zap.Error(err))
		return nil, nil
	}
	buyer, err := b.repos.User.FindByID(o.BuyerID)
	if err != nil {
		b.logger.Warn("load buyer failed", zap.Int64("buyer_id", o.BuyerID), zap.Error(err))
		return nil, nil
	}
	return p, buyer
}
