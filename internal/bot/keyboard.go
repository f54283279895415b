package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"tovarbot/internal/gate"
	"tovarbot/internal/models"
	"tovarbot/internal/pkg/utils"
)

// Reply keyboard labels. Text handlers match on these.
const (
	btnCatalog       = "🛍 Товары"
	btnMyOrders      = "📦 Мои заказы"
	btnHelp          = "ℹ️ Помощь"
	btnSharePhone    = "📱 Отправить номер"
	btnShareLocation = "📍 Отправить локацию"
	btnManualAddr    = "✍️ Ввести адрес текстом"
)

// KeyboardBuilder constructs every keyboard the bot sends. Buttons going
// through telebot use tele.ReplyMarkup; buttons on cross-chat messages sent
// via the raw API use plain maps telegram accepts as reply_markup JSON.
type KeyboardBuilder struct{}

func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// dataBtn builds an inline button with the action kind as the callback
// unique and the payload as data, matching how handleCallback reassembles
// them.
func dataBtn(menu *tele.ReplyMarkup, text string, a Action) tele.Btn {
	kind, payload := a.EncodeParts()
	if payload == "" {
		return menu.Data(text, kind)
	}
	return menu.Data(text, kind, payload)
}

// MainMenu is the persistent reply keyboard in the buyer's chat.
func (kb *KeyboardBuilder) MainMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnCatalog)),
		menu.Row(menu.Text(btnMyOrders), menu.Text(btnHelp)),
	)
	return menu
}

// Gate lists the missing channels and bots as URL buttons with a recheck
// button underneath.
func (kb *KeyboardBuilder) Gate(res gate.Result) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, ch := range res.MissingChannels {
		name := ch.Name
		if name == "" {
			name = ch.ChannelID
		}
		rows = append(rows, menu.Row(menu.URL("📣 "+name, ch.InviteLink)))
	}
	for _, b := range res.MissingBots {
		name := b.Name
		if name == "" {
			name = "@" + b.Username
		}
		rows = append(rows, menu.Row(menu.URL("🤖 "+name, "https://t.me/"+b.Username)))
	}
	rows = append(rows, menu.Row(dataBtn(menu, "✅ Я подписался", Action{Kind: KindGateCheck})))
	menu.Inline(rows...)
	return menu
}

// ProductList renders one button per active product.
func (kb *KeyboardBuilder) ProductList(products []models.Product) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, p := range products {
		label := fmt.Sprintf("%s — %s", p.Name, utils.FormatNumber(p.Price))
		rows = append(rows, menu.Row(dataBtn(menu, label, Action{Kind: KindProduct, ProductID: p.ID})))
	}
	menu.Inline(rows...)
	return menu
}

// ProductCard offers the payment choices for one product: manual wallet
// transfer per configured wallet, native invoice per payment method.
func (kb *KeyboardBuilder) ProductCard(p *models.Product, wallets []models.Wallet, methods []models.PaymentMethod) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, w := range wallets {
		rows = append(rows, menu.Row(dataBtn(menu,
			"💳 "+w.Name,
			Action{Kind: KindPayWallet, ProductID: p.ID, RefID: w.ID},
		)))
	}
	for _, m := range methods {
		rows = append(rows, menu.Row(dataBtn(menu,
			"🧾 "+m.Name,
			Action{Kind: KindPayInvoice, ProductID: p.ID, RefID: m.ID},
		)))
	}
	rows = append(rows, menu.Row(dataBtn(menu, "⬅️ Назад", Action{Kind: KindBack})))
	menu.Inline(rows...)
	return menu
}

// WalletOrder accompanies the transfer instructions.
func (kb *KeyboardBuilder) WalletOrder(orderID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(dataBtn(menu, "✅ Я оплатил", Action{Kind: KindPaid, OrderID: orderID})),
		menu.Row(dataBtn(menu, "❌ Отменить", Action{Kind: KindCancel, OrderID: orderID})),
	)
	return menu
}

// DetailsConfirm asks the buyer to approve or redo the collected details.
func (kb *KeyboardBuilder) DetailsConfirm(orderID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(dataBtn(menu, "✅ Всё верно", Action{Kind: KindDetailsOK, OrderID: orderID})),
		menu.Row(dataBtn(menu, "✏️ Изменить", Action{Kind: KindDetailsEdit, OrderID: orderID})),
	)
	return menu
}

// SharePhone is the reply keyboard for the phone step.
func (kb *KeyboardBuilder) SharePhone() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Contact(btnSharePhone)))
	return menu
}

// ShareLocation is the reply keyboard for the address step, with a text
// fallback for buyers who prefer typing.
func (kb *KeyboardBuilder) ShareLocation() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Location(btnShareLocation)),
		menu.Row(menu.Text(btnManualAddr)),
	)
	return menu
}

// rawButton and rawInline build reply_markup maps for messages delivered
// through the raw API client, outside telebot's send path.

func rawButton(text, data string) map[string]string {
	return map[string]string{"text": text, "callback_data": data}
}

func rawInline(rows ...[]map[string]string) map[string]interface{} {
	return map[string]interface{}{"inline_keyboard": rows}
}

// ReviewDecision is attached to the receipt copy in the reviewer's chat.
func (kb *KeyboardBuilder) ReviewDecision(orderID string) map[string]interface{} {
	return rawInline(
		[]map[string]string{
			rawButton("✅ Подтвердить", Action{Kind: KindApprove, OrderID: orderID}.Encode()),
			rawButton("❌ Отклонить", Action{Kind: KindReject, OrderID: orderID}.Encode()),
		},
		[]map[string]string{
			rawButton("✏️ Другая сумма", Action{Kind: KindOverride, OrderID: orderID}.Encode()),
		},
	)
}

// OverrideConfirm lets the reviewer accept or re-enter the corrected sum.
// Sent as a reply in the reviewer's own chat, so it goes through telebot.
func (kb *KeyboardBuilder) OverrideConfirm(orderID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			dataBtn(menu, "✅ Да, подтвердить", Action{Kind: KindOverrideOK, OrderID: orderID}),
			dataBtn(menu, "🔁 Ввести заново", Action{Kind: KindOverrideRetry, OrderID: orderID}),
		),
	)
	return menu
}

// Fulfill is attached to sale announcements for the operator.
func (kb *KeyboardBuilder) Fulfill(orderID string) map[string]interface{} {
	return rawInline(
		[]map[string]string{
			rawButton("📦 Выполнено", Action{Kind: KindFulfill, OrderID: orderID}.Encode()),
		},
	)
}
