package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"github.com/microcosm-cc/bluemonday"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const emailFooter = "Sent automatically by PhishAI Detection System"

// Mailer sends alert e-mails over SMTP with STARTTLS
type Mailer struct {
	server  string
	port    int
	timeout time.Duration
	policy  *bluemonday.Policy
	logger  *zap.Logger

	// deliver is swapped out in tests
	deliver func(ctx context.Context, c *mail.Client, msg *mail.Msg) error
}

// NewMailer creates a mailer for the configured SMTP relay
func NewMailer(cfg config.AlertConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		server:  cfg.SMTPServer,
		port:    cfg.SMTPPort,
		timeout: cfg.Timeout,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger,
		deliver: func(ctx context.Context, c *mail.Client, msg *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, msg)
		},
	}
}

// SendEmailAlert sends a plain text message with an HTML alternative and
// reports whether the relay accepted it.
func (m *Mailer) SendEmailAlert(ctx context.Context, sender, password, recipient, subject, body string) bool {
	if sender == "" || password == "" || recipient == "" {
		m.logger.Warn("Email credentials or recipient not set")
		return false
	}

	msg, err := m.buildMessage(sender, recipient, subject, body)
	if err != nil {
		m.logger.Warn("Failed to build alert email", zap.Error(err))
		return false
	}

	c, err := mail.NewClient(m.server,
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(sender),
		mail.WithPassword(password),
		mail.WithTimeout(m.timeout),
	)
	if err != nil {
		m.logger.Warn("Failed to create SMTP client", zap.Error(err))
		return false
	}

	if err := m.deliver(ctx, c, msg); err != nil {
		m.logger.Warn("Alert email failed", zap.String("subject", subject), zap.Error(err))
		return false
	}

	m.logger.Info("Alert email sent", zap.String("subject", subject))
	return true
}

func (m *Mailer) buildMessage(sender, recipient, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(sender); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.AddAlternativeString(mail.TypeTextHTML, m.renderHTML(subject, body))
	return msg, nil
}

// renderHTML builds the HTML alternative. Subject and body may carry the
// scanned URL, so both are reduced to escaped text first.
func (m *Mailer) renderHTML(subject, body string) string {
	icon := "🚨"
	if strings.Contains(strings.ToLower(subject), "benign") {
		icon = "✅"
	}

	return fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
    <h2 style="color: #d9534f;">%s %s</h2>
    <p style="font-size: 16px;">%s</p>
    <hr>
    <p style="font-size:12px; color:gray;">%s</p>
  </body>
</html>`, icon, m.policy.Sanitize(subject), m.policy.Sanitize(body), emailFooter)
}
