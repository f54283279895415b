package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"tovarbot/internal/models"
	"tovarbot/internal/order"
	"tovarbot/internal/pkg/utils"
	"tovarbot/internal/state"
)

// ── Buyer details: name ───────────────────────────────────────────────

func (b *Bot) handleNameText(c tele.Context, conv *state.Conversation, text string) error {
	if len([]rune(text)) < 2 {
		return c.Send("Имя слишком короткое, введите ещё раз:")
	}

	conv.Name = text
	conv.Step = state.StepPhone
	if err := b.states.Set(context.Background(), state.For(c.Sender().ID), conv); err != nil {
		b.logger.Error("save conversation failed", zap.Error(err))
	}

	return c.Send("📱 Отправьте номер телефона или введите его вручную:", b.keyboard.SharePhone())
}

// ── Buyer details: phone ──────────────────────────────────────────────

func (b *Bot) handlePhoneText(c tele.Context, conv *state.Conversation, text string) error {
	phone := strings.ReplaceAll(text, " ", "")
	if !utils.IsValidUzbekPhone(phone) {
		return c.Send("Номер не распознан. Формат: +998901234567")
	}
	return b.acceptPhone(c, conv, phone)
}

func (b *Bot) handleContact(c tele.Context) error {
	contact := c.Message().Contact
	if contact == nil {
		return nil
	}

	senderID := c.Sender().ID
	conv, err := b.states.Get(context.Background(), state.For(senderID))
	if err != nil || conv.Step != state.StepPhone {
		return nil
	}

	if contact.UserID != 0 && contact.UserID != senderID {
		return c.Send("⚠️ Отправьте свой номер, а не чужой контакт.")
	}

	return b.acceptPhone(c, conv, contact.PhoneNumber)
}

func (b *Bot) acceptPhone(c tele.Context, conv *state.Conversation, phone string) error {
	conv.Phone = phone
	conv.Step = state.StepAddress
	if err := b.states.Set(context.Background(), state.For(c.Sender().ID), conv); err != nil {
		b.logger.Error("save conversation failed", zap.Error(err))
	}

	return c.Send(
		"📍 Отправьте локацию доставки или введите адрес текстом:",
		b.keyboard.ShareLocation())
}

// ── Buyer details: address ────────────────────────────────────────────

func (b *Bot) handleAddressText(c tele.Context, conv *state.Conversation, text string) error {
	if text == btnManualAddr {
		return c.Send("✍️ Введите адрес доставки:")
	}
	if len([]rune(text)) < 5 {
		return c.Send("Адрес слишком короткий, опишите подробнее:")
	}
	return b.acceptAddress(c, conv, text)
}

func (b *Bot) handleLocation(c tele.Context) error {
	loc := c.Message().Location
	if loc == nil {
		return nil
	}

	conv, err := b.states.Get(context.Background(), state.For(c.Sender().ID))
	if err != nil || conv.Step != state.StepAddress {
		return nil
	}

	address := fmt.Sprintf("geo:%.6f,%.6f", loc.Lat, loc.Lng)
	return b.acceptAddress(c, conv, address)
}

func (b *Bot) acceptAddress(c tele.Context, conv *state.Conversation, address string) error {
	conv.Address = address

	o, err := b.machine.ReviewDetails(conv.OrderID, conv.Name, conv.Phone, conv.Address)
	if err != nil {
		if errors.Is(err, order.ErrConflict) {
			_ = b.states.Clear(context.Background(), state.For(c.Sender().ID))
			return c.Send("Заказ уже оформлен.", b.keyboard.MainMenu())
		}
		b.logger.Error("review details failed", zap.String("order_id", conv.OrderID), zap.Error(err))
		return c.Send("Ошибка, попробуйте ещё раз.")
	}

	conv.Step = state.StepConfirmDetails
	if err := b.states.Set(context.Background(), state.For(c.Sender().ID), conv); err != nil {
		b.logger.Error("save conversation failed", zap.Error(err))
	}

	return c.Send(fmt.Sprintf(
		"Проверьте данные доставки:\n\n"+
			"Имя: <b>%s</b>\n"+
			"Телефон: <b>%s</b>\n"+
			"Адрес: <b>%s</b>",
		o.CustomerName, o.CustomerPhone, o.CustomerAddress),
		b.keyboard.DetailsConfirm(o.ID))
}

// ── Confirmation ──────────────────────────────────────────────────────

func (b *Bot) handleDetailsConfirm(c tele.Context, action Action) error {
	buyerID := c.Sender().ID

	existing, err := b.repos.Order.FindByID(action.OrderID)
	if err != nil || existing.BuyerID != buyerID {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ не найден."})
	}
	if existing.Status == models.OrderFinalized {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ уже оформлен."})
	}
	if existing.Status != models.OrderConfirmingDetails {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ уже обработан."})
	}

	p, err := b.repos.Product.FindByID(existing.ProductID)
	if err != nil {
		b.logger.Error("load product failed", zap.String("order_id", existing.ID), zap.Error(err))
		_ = c.Respond()
		return c.Send("Не удалось оформить заказ, попробуйте ещё раз.")
	}

	// The sale row goes in before the order leaves confirming_details: if it
	// cannot be written the buyer keeps the confirm button and retries.
	o, sale, mirror, err := b.ledger.Close(existing, p, b.machine.Finalize)
	if err != nil {
		if errors.Is(err, order.ErrConflict) {
			return c.Respond(&tele.CallbackResponse{Text: "Заказ уже оформлен."})
		}
		b.logger.Error("close sale failed", zap.String("order_id", existing.ID), zap.Error(err))
		_ = c.Respond()
		return c.Send("Не удалось оформить заказ, попробуйте ещё раз.",
			b.keyboard.DetailsConfirm(existing.ID))
	}

	_ = b.states.Clear(context.Background(), state.For(buyerID))
	b.notifier.BroadcastSale(sale, p, mirror, b.keyboard.Fulfill(o.ID))

	_ = c.Edit("✅ Заказ оформлен.")
	_ = c.Respond()

	remaining := o.RemainingBalance(p.Price)
	text := fmt.Sprintf(
		"🎉 Спасибо за покупку!\n\nОплачено: <b>%s</b>",
		formatAmount(o.ConfirmedAmount))
	if remaining > 0 {
		text += fmt.Sprintf("\nОстаток к оплате при получении: <b>%s</b>", formatAmount(remaining))
	}
	text += "\n\nМы свяжемся с вами для доставки."
	return c.Send(text, b.keyboard.MainMenu())
}

func (b *Bot) handleDetailsEdit(c tele.Context, action Action) error {
	buyerID := c.Sender().ID

	existing, err := b.repos.Order.FindByID(action.OrderID)
	if err != nil || existing.BuyerID != buyerID {
		return c.Respond(&tele.CallbackResponse{Text: "Заказ не найден."})
	}

	o, err := b.machine.EditDetails(action.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrConflict) {
			return c.Respond(&tele.CallbackResponse{Text: "Заказ уже оформлен."})
		}
		b.logger.Error("edit details failed", zap.String("order_id", action.OrderID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже."})
	}

	conv := &state.Conversation{Step: state.StepName, OrderID: o.ID}
	if err := b.states.Set(context.Background(), state.For(buyerID), conv); err != nil {
		b.logger.Error("save conversation failed", zap.Error(err))
	}

	_ = c.Respond()
	return c.Send("Введите <b>имя получателя</b> заново:")
}
