package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tovarbot/internal/bootstrap"
	"tovarbot/internal/bot"
	"tovarbot/internal/config"
	cronpkg "tovarbot/internal/cron"
	"tovarbot/internal/gate"
	"tovarbot/internal/ledger"
	"tovarbot/internal/middleware"
	"tovarbot/internal/notify"
	"tovarbot/internal/order"
	"tovarbot/internal/pkg/sheets"
	"tovarbot/internal/pkg/telegram"
	"tovarbot/internal/repository"
	"tovarbot/internal/router"
	"tovarbot/internal/state"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Telegram Bot API (direct HTTP client) ---
	botAPI := telegram.NewBotAPI(cfg.Bot.Token)

	// --- Redis-backed infrastructure (each falls back to memory) ---
	updateDeduper, dedupeErr := middleware.NewUpdateDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	states, stateErr := state.NewStore(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB)
	if stateErr != nil {
		logger.Warn("Redis unavailable for conversation state, using in-memory fallback", zap.Error(stateErr))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" && stateErr == nil {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Pass,
			DB:       cfg.Redis.DB,
		})
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// --- Domain services ---
	machine := order.NewMachine(orderRepo, logger,
		cfg.Payment.DeclaredAmount,
		cfg.Payment.OverrideMin,
		cfg.Payment.OverrideMax,
	)

	subGate := gate.New(botAPI, channelRepo, rdb, logger,
		cfg.Gate.CacheTTL,
		cfg.Gate.JoinRequestTTL,
		cfg.Bot.IsAdmin,
	)

	notifier := notify.New(botAPI, logger,
		cfg.Bot.AdminIDs,
		cfg.Bot.ReviewerID,
		cfg.Bot.OperatorID,
		cfg.Bot.OrderChannel,
	)

	sheetsClient := sheets.NewClient(
		cfg.Sheets.SpreadsheetID,
		cfg.Sheets.Worksheet,
		cfg.Sheets.AccessToken,
	)
	ledgerWriter := ledger.NewWriter(saleRepo, sheetsClient, logger)

	// --- Bot ---
	botRepos := &bot.BotRepos{
		User:    userRepo,
		Product: productRepo,
		Wallet:  walletRepo,
		Order:   orderRepo,
		Sale:    saleRepo,
		Channel: channelRepo,
		Setting: settingRepo,
	}
	teleBot, err := bot.New(cfg, bot.Deps{
		Repos:    botRepos,
		BotAPI:   botAPI,
		Machine:  machine,
		Gate:     subGate,
		Notifier: notifier,
		Ledger:   ledgerWriter,
		States:   states,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// --- Echo + Routes ---
	e := echo.New()
	e.HideBanner = true
	router.Setup(e, db, logger, cfg.API.Key, updateDeduper, teleBot.WebhookHandler())

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg, &cronpkg.CronRepos{
		Order:   orderRepo,
		Sale:    saleRepo,
		Channel: channelRepo,
	}, botAPI, notifier, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	go teleBot.Start()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	teleBot.Stop()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
