package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"tovarbot/internal/config"
	"tovarbot/internal/gate"
	"tovarbot/internal/ledger"
	"tovarbot/internal/models"
	"tovarbot/internal/notify"
	"tovarbot/internal/order"
	"tovarbot/internal/pkg/telegram"
	"tovarbot/internal/pkg/utils"
	"tovarbot/internal/repository"
	"tovarbot/internal/state"
)

// Bot wraps the telebot instance and handlers.
type Bot struct {
	tb         *tele.Bot
	webhook    *tele.Webhook
	useWebhook bool
	cfg        *config.Config
	repos      *BotRepos
	logger     *zap.Logger
	keyboard   *KeyboardBuilder
	botAPI     *telegram.BotAPI
	machine    *order.Machine
	gate       *gate.Gate
	notifier   *notify.Notifier
	ledger     *ledger.Writer
	states     state.Store
}

// BotRepos bundles all repositories needed by bot handlers.
type BotRepos struct {
	User    *repository.UserRepository
	Product *repository.ProductRepository
	Wallet  *repository.WalletRepository
	Order   *repository.OrderRepository
	Sale    *repository.SaleRepository
	Channel *repository.ChannelRepository
	Setting *repository.SettingRepository
}

// Deps carries the collaborators the bot drives.
type Deps struct {
	Repos    *BotRepos
	BotAPI   *telegram.BotAPI
	Machine  *order.Machine
	Gate     *gate.Gate
	Notifier *notify.Notifier
	Ledger   *ledger.Writer
	States   state.Store
}

// New creates and configures a new Bot instance.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) (*Bot, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Bot.UpdateMode))
	if mode == "" {
		mode = "auto"
	}

	useWebhook := true
	switch mode {
	case "polling":
		useWebhook = false
	case "webhook":
		useWebhook = true
	default: // auto
		useWebhook = strings.TrimSpace(cfg.Bot.WebhookURL) != ""
	}

	var poller tele.Poller
	var webhook *tele.Webhook
	if useWebhook {
		if strings.TrimSpace(cfg.Bot.WebhookURL) == "" {
			return nil, fmt.Errorf("BOT_WEBHOOK_URL is required when BOT_UPDATE_MODE=webhook")
		}
		webhook = &tele.Webhook{
			Listen:   "", // Empty: we mount on Echo instead of telebot's own server
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
		poller = webhook
	} else {
		poller = &tele.LongPoller{Timeout: 10 * time.Second}
	}

	pref := tele.Settings{
		Token:     cfg.Bot.Token,
		Poller:    poller,
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telebot: %w", err)
	}

	b := &Bot{
		tb:         tb,
		webhook:    webhook,
		useWebhook: useWebhook,
		cfg:        cfg,
		repos:      deps.Repos,
		logger:     logger,
		keyboard:   NewKeyboardBuilder(),
		botAPI:     deps.BotAPI,
		machine:    deps.Machine,
		gate:       deps.Gate,
		notifier:   deps.Notifier,
		ledger:     deps.Ledger,
		states:     deps.States,
	}

	b.registerHandlers()

	return b, nil
}

// GetTelebot returns the underlying telebot instance for webhook integration.
func (b *Bot) GetTelebot() *tele.Bot {
	return b.tb
}

// WebhookHandler returns the webhook handler for mounting on Echo.
// Returns nil when running in long-polling mode.
func (b *Bot) WebhookHandler() http.Handler {
	return b.webhook
}

// Start begins polling/webhook processing.
func (b *Bot) Start() {
	if b.useWebhook {
		b.logger.Info("Starting Telegram bot", zap.String("mode", "webhook"), zap.String("webhook_url", b.cfg.Bot.WebhookURL))
	} else {
		// Long polling requires webhook to be removed first.
		if err := b.tb.RemoveWebhook(true); err != nil {
			b.logger.Warn("Failed to remove webhook before long polling", zap.Error(err))
		}
		b.logger.Info("Starting Telegram bot", zap.String("mode", "polling"))
	}
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// registerHandlers sets up all bot message and callback handlers.
func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/stats", b.handleStats)
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnContact, b.handleContact)
	b.tb.Handle(tele.OnLocation, b.handleLocation)
	b.tb.Handle(tele.OnPhoto, b.handlePhoto)
	b.tb.Handle(tele.OnDocument, b.handleNonPhotoReceipt)
	b.tb.Handle(tele.OnVideo, b.handleNonPhotoReceipt)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
	// Buttons built through menu.Data carry their kind as the callback
	// unique, so telebot dispatches them by endpoint instead of OnCallback.
	for _, kind := range allKinds {
		b.tb.Handle("\f"+kind, b.handleCallback)
	}
	b.tb.Handle(tele.OnCheckout, b.handleCheckout)
	b.tb.Handle(tele.OnPayment, b.handlePayment)
	b.tb.Handle(tele.OnChatJoinRequest, b.handleChatJoinRequest)
}

// ── /start ────────────────────────────────────────────────────────────

func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()

	user, created, err := b.repos.User.Upsert(&models.User{
		ID:       sender.ID,
		Username: sender.Username,
		FullName: strings.TrimSpace(sender.FirstName + " " + sender.LastName),
	})
	if err != nil {
		b.logger.Error("upsert user failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send("Произошла ошибка, попробуйте позже.")
	}

	if created {
		payload := c.Message().Payload
		if strings.HasPrefix(payload, "ref_") {
			b.applyReferral(user, strings.TrimPrefix(payload, "ref_"))
		}
	}

	if user.Blocked {
		return c.Send("⛔ Ваш аккаунт заблокирован.")
	}

	_ = b.states.Clear(context.Background(), state.For(sender.ID))

	if !b.requireGate(c, sender.ID, false) {
		return nil
	}

	welcome := "👋 Добро пожаловать! Выберите товар в каталоге."
	if custom, err := b.repos.Setting.Get("welcome_text"); err == nil && custom != "" {
		welcome = custom
	}
	return c.Send(welcome, b.keyboard.MainMenu())
}

func (b *Bot) applyReferral(user *models.User, raw string) {
	referrerID := utils.ParseInt64(raw, 0)
	if referrerID == 0 || referrerID == user.ID {
		return
	}
	if _, err := b.repos.User.FindByID(referrerID); err != nil {
		return
	}
	if err := b.repos.User.Update(user.ID, map[string]interface{}{"referrer_id": referrerID}); err != nil {
		b.logger.Warn("save referrer failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	if err := b.repos.User.IncrementReferralCount(referrerID); err != nil {
		b.logger.Warn("bump referral count failed", zap.Int64("referrer_id", referrerID), zap.Error(err))
	}
}

// ── /stats (admins) ───────────────────────────────────────────────────

func (b *Bot) handleStats(c tele.Context) error {
	if !b.cfg.Bot.IsAdmin(c.Sender().ID) {
		return nil
	}
	count, total, err := b.repos.Sale.SummarySince(time.Now().AddDate(0, 0, -1))
	if err != nil {
		return c.Send("Не удалось получить статистику.")
	}
	users, _ := b.repos.User.Count()
	return c.Send(fmt.Sprintf(
		"📊 За последние сутки\n\nПродаж: %d\nСумма: %s\nВсего пользователей: %d",
		count, formatAmount(total), users))
}

// ── Subscription gate ─────────────────────────────────────────────────

// requireGate sends the join prompt and returns false when the user still
// has requirements to satisfy.
func (b *Bot) requireGate(c tele.Context, userID int64, force bool) bool {
	res, err := b.gate.Check(context.Background(), userID, force)
	if err != nil {
		b.logger.Error("gate check failed", zap.Int64("user_id", userID), zap.Error(err))
		return true // do not block commerce on infrastructure errors
	}
	if res.Satisfied {
		return true
	}
	_ = c.Send(
		"📢 Для продолжения подпишитесь на наши каналы и нажмите «Я подписался».",
		b.keyboard.Gate(res),
	)
	return false
}

func (b *Bot) handleChatJoinRequest(c tele.Context) error {
	req := c.ChatJoinRequest()
	if req == nil || req.Chat == nil || req.Sender == nil {
		return nil
	}
	channelID := fmt.Sprintf("%d", req.Chat.ID)
	if err := b.repos.Channel.SaveJoinRequest(req.Sender.ID, channelID); err != nil {
		b.logger.Warn("save join request failed", zap.Error(err))
	}
	return nil
}

// ── Text routing ──────────────────────────────────────────────────────

func (b *Bot) handleText(c tele.Context) error {
	senderID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	blocked, err := b.repos.User.IsBlocked(senderID)
	if err == nil && blocked {
		return c.Send("⛔ Ваш аккаунт заблокирован.")
	}

	conv, err := b.states.Get(context.Background(), state.For(senderID))
	if err != nil {
		b.logger.Error("load conversation failed", zap.Int64("user_id", senderID), zap.Error(err))
		conv = &state.Conversation{}
	}

	switch conv.Step {
	case state.StepAwaitReceipt:
		return c.Send(receiptPrompt)
	case state.StepOverrideAmount:
		return b.handleOverrideAmountText(c, conv, text)
	case state.StepName:
		return b.handleNameText(c, conv, text)
	case state.StepPhone:
		return b.handlePhoneText(c, conv, text)
	case state.StepAddress:
		return b.handleAddressText(c, conv, text)
	}

	switch text {
	case btnCatalog:
		return b.sendCatalog(c)
	case btnMyOrders:
		return b.sendMyOrders(c)
	case btnHelp:
		help := "По всем вопросам пишите администратору."
		if contact, err := b.repos.Setting.Get("support_contact"); err == nil && contact != "" {
			help = "По всем вопросам пишите " + contact
		}
		return c.Send(help)
	}

	return c.Send("Выберите действие на клавиатуре.", b.keyboard.MainMenu())
}

// ── Catalog ───────────────────────────────────────────────────────────

func (b *Bot) sendCatalog(c tele.Context) error {
	if !b.requireGate(c, c.Sender().ID, false) {
		return nil
	}
	products, err := b.repos.Product.FindActive()
	if err != nil {
		b.logger.Error("load products failed", zap.Error(err))
		return c.Send("Не удалось загрузить каталог.")
	}
	if len(products) == 0 {
		return c.Send("Каталог пока пуст.")
	}
	return c.Send("🛍 Выберите товар:", b.keyboard.ProductList(products))
}

func (b *Bot) sendProductCard(c tele.Context, productID int64) error {
	p, err := b.repos.Product.FindByID(productID)
	if err != nil || !p.Active {
		return c.Send("Товар недоступен.")
	}
	wallets, err := b.repos.Wallet.FindAll()
	if err != nil {
		b.logger.Error("load wallets failed", zap.Error(err))
	}
	methods, err := b.repos.Wallet.FindMethods()
	if err != nil {
		b.logger.Error("load payment methods failed", zap.Error(err))
	}

	caption := fmt.Sprintf(
		"<b>%s</b>\n\n%s\n\nЦена: <b>%s</b>\n\nВыберите способ оплаты:",
		p.Name, p.Description, formatAmount(p.Price))
	markup := b.keyboard.ProductCard(p, wallets, methods)

	switch p.MediaType {
	case "photo":
		return c.Send(&tele.Photo{File: tele.File{FileID: p.MediaFileID}, Caption: caption}, markup)
	case "video":
		return c.Send(&tele.Video{File: tele.File{FileID: p.MediaFileID}, Caption: caption}, markup)
	default:
		return c.Send(caption, markup)
	}
}

func (b *Bot) sendMyOrders(c tele.Context) error {
	o, err := b.repos.Order.FindOpenByBuyer(c.Sender().ID)
	if err != nil || o == nil {
		return c.Send("У вас нет активных заказов.")
	}
	p, err := b.repos.Product.FindByID(o.ProductID)
	if err != nil {
		return c.Send("У вас нет активных заказов.")
	}
	return c.Send(fmt.Sprintf(
		"📦 Заказ <code>%s</code>\nТовар: %s\nСтатус: %s",
		o.ID, p.Name, orderStatusLabel(o.Status)))
}

// ── Callback queries ──────────────────────────────────────────────────

func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}

	// Telebot splits "\f<unique>|<payload>" buttons into Unique and Data;
	// raw-markup buttons arrive with the full string in Data. Reassemble
	// either form into "kind|payload".
	data := strings.TrimSpace(cb.Data)
	if cb.Unique != "" {
		if data == "" {
			data = cb.Unique
		} else {
			data = cb.Unique + sep + data
		}
	}

	action, err := DecodeAction(data)
	if err != nil {
		b.logger.Warn("bad callback", zap.String("data", data), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Кнопка устарела."})
	}

	switch action.Kind {
	case KindGateCheck:
		if b.requireGate(c, c.Sender().ID, true) {
			_ = c.Respond(&tele.CallbackResponse{Text: "Спасибо!"})
			return b.sendCatalog(c)
		}
		return c.Respond(&tele.CallbackResponse{Text: "Подписка ещё не видна."})

	case KindBack:
		_ = c.Respond()
		return b.sendCatalog(c)

	case KindProduct:
		_ = c.Respond()
		if !b.requireGate(c, c.Sender().ID, false) {
			return nil
		}
		return b.sendProductCard(c, action.ProductID)

	case KindPayWallet:
		return b.startWalletOrder(c, action)
	case KindPayInvoice:
		return b.startInvoice(c, action)
	case KindPaid:
		return b.handlePaidButton(c, action)
	case KindCancel:
		return b.handleCancelOrder(c, action)

	case KindApprove:
		return b.handleApprove(c, action)
	case KindReject:
		return b.handleReject(c, action)
	case KindOverride:
		return b.handleOverrideStart(c, action)
	case KindOverrideOK:
		return b.handleOverrideConfirm(c, action)
	case KindOverrideRetry:
		return b.handleOverrideRetry(c, action)

	case KindDetailsOK:
		return b.handleDetailsConfirm(c, action)
	case KindDetailsEdit:
		return b.handleDetailsEdit(c, action)

	case KindFulfill:
		return b.handleFulfill(c, action)
	}

	return c.Respond()
}

// ── Helpers ───────────────────────────────────────────────────────────

func formatAmount(v int64) string {
	return utils.FormatNumber(v)
}

func orderStatusLabel(status string) string {
	switch status {
	case models.OrderAwaitingReceipt:
		return "ожидает чек"
	case models.OrderPendingReview:
		return "чек на проверке"
	case models.OrderAwaitingOverrideInput, models.OrderAwaitingOverrideOK:
		return "сумма уточняется"
	case models.OrderApproved:
		return "оплата подтверждена"
	case models.OrderAwaitingBuyerDetails, models.OrderConfirmingDetails:
		return "ожидаются данные доставки"
	case models.OrderFinalized:
		return "оформлен"
	case models.OrderRejected:
		return "отклонён"
	default:
		return status
	}
}
