package cron

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tovarbot/internal/config"
	"tovarbot/internal/notify"
	"tovarbot/internal/pkg/telegram"
	"tovarbot/internal/repository"
)

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	logger   *zap.Logger
	repos    *CronRepos
	botAPI   *telegram.BotAPI
	notifier *notify.Notifier
}

// CronRepos bundles repositories needed by cron jobs.
type CronRepos struct {
	Order   *repository.OrderRepository
	Sale    *repository.SaleRepository
	Channel *repository.ChannelRepository
}

// New creates a new cron scheduler.
func New(cfg *config.Config, repos *CronRepos, botAPI *telegram.BotAPI, notifier *notify.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		logger:   logger,
		repos:    repos,
		botAPI:   botAPI,
		notifier: notifier,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Expire unpaid invoices - every minute
	s.cron.AddFunc("0 * * * * *", func() {
		s.expirePendingInvoices()
	})

	// Drop join requests older than the trust window - hourly
	s.cron.AddFunc("0 0 * * * *", func() {
		s.cleanupJoinRequests()
	})

	// Daily sales summary - at 23:45
	s.cron.AddFunc("0 45 23 * * *", func() {
		s.dailySalesSummary()
	})

	s.cron.Start()
}

// Stop halts the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// expirePendingInvoices deletes invoice messages nobody paid within the
// timeout so stale pay buttons disappear from buyer chats.
func (s *Scheduler) expirePendingInvoices() {
	cutoff := time.Now().Add(-s.cfg.Payment.InvoiceTimeout)
	expired, err := s.repos.Order.FindExpiredInvoices(cutoff)
	if err != nil {
		s.logger.Error("find expired invoices failed", zap.Error(err))
		return
	}

	for _, inv := range expired {
		if err := s.botAPI.DeleteMessage(inv.UserID, inv.MessageID); err != nil {
			s.logger.Warn("delete invoice message failed",
				zap.Int64("user_id", inv.UserID),
				zap.Int("message_id", inv.MessageID),
				zap.Error(err))
		}
		if err := s.repos.Order.DeletePendingInvoice(inv.ID); err != nil {
			s.logger.Error("delete pending invoice failed", zap.Int64("id", inv.ID), zap.Error(err))
			continue
		}
		if err := s.botAPI.SendMessage(inv.UserID,
			"⌛ Счёт истёк. Откройте товар в каталоге и оформите заказ заново.", nil); err != nil {
			s.logger.Warn("notify invoice expiry failed", zap.Int64("user_id", inv.UserID), zap.Error(err))
		}
	}

	if len(expired) > 0 {
		s.logger.Info("expired pending invoices", zap.Int("count", len(expired)))
	}
}

func (s *Scheduler) cleanupJoinRequests() {
	deleted, err := s.repos.Channel.DeleteStaleJoinRequests(s.cfg.Gate.JoinRequestTTL)
	if err != nil {
		s.logger.Error("cleanup join requests failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("dropped stale join requests", zap.Int64("count", deleted))
	}
}

func (s *Scheduler) dailySalesSummary() {
	count, total, err := s.repos.Sale.SummarySince(time.Now().AddDate(0, 0, -1))
	if err != nil {
		s.logger.Error("daily sales summary failed", zap.Error(err))
		return
	}
	s.notifier.SendDailySummary(count, total)
}
