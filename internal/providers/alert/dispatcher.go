package alert

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Download alert wording
const (
	VerdictDownloadBlocked = "download-attempt-blocked"
	DownloadSubject        = "🚨 Auto-Download Blocked"
	downloadBodyFormat     = "A download was blocked during sandbox visit to: %s"
)

// Delivery statuses recorded in metrics
const (
	statusSent    = "sent"
	statusFailed  = "failed"
	statusSkipped = "skipped"
)

// Dispatcher fans an incident out to every configured channel
type Dispatcher struct {
	cfg     config.AlertConfig
	chat    *ChatNotifier
	mailer  *Mailer
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(cfg config.AlertConfig, chat *ChatNotifier, mailer *Mailer, metrics *monitoring.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cfg:     cfg,
		chat:    chat,
		mailer:  mailer,
		metrics: metrics,
		logger:  logger,
	}
}

// DownloadBlocked notifies chat and e-mail in parallel and returns when
// both finished or ctx expired.
func (d *Dispatcher) DownloadBlocked(ctx context.Context, url string) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		d.send(ctx, "chat", d.chat != nil && d.chat.Configured(), func() bool {
			return d.chat.SendChatAlert(ctx, url, VerdictDownloadBlocked)
		})
	}()

	go func() {
		defer wg.Done()
		d.send(ctx, "email", d.mailer != nil && d.cfg.EmailConfigured(), func() bool {
			return d.mailer.SendEmailAlert(ctx, d.cfg.EmailUser, d.cfg.EmailPass, d.cfg.EmailTo,
				DownloadSubject, fmt.Sprintf(downloadBodyFormat, url))
		})
	}()

	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, channel string, configured bool, deliver func() bool) {
	timer := monitoring.NewTimer(d.metrics, channel)
	if !configured {
		timer.Stop(statusSkipped)
		return
	}

	if deliver() {
		timer.Stop(statusSent)
		return
	}
	timer.Stop(statusFailed)
	d.logger.Warn("Alert delivery failed", zap.String("channel", channel), zap.Error(ctx.Err()))
}
