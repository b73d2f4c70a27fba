package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/providers/http/client"
	"go.uber.org/zap"
)

// VerdictClean is the only verdict posted without a channel mention
const VerdictClean = "clean"

// ChatNotifier posts alerts to an incoming chat webhook (Slack format)
type ChatNotifier struct {
	webhook string
	client  *client.Client
	logger  *zap.Logger
}

// NewChatNotifier creates a notifier. An empty webhook disables it.
func NewChatNotifier(webhook string, c *client.Client, logger *zap.Logger) *ChatNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatNotifier{webhook: webhook, client: c, logger: logger}
}

// Configured reports whether a webhook is set
func (n *ChatNotifier) Configured() bool {
	return n.webhook != ""
}

// ChatMessage formats the alert text for url and verdict
func ChatMessage(url, verdict string) string {
	emoji, attention := "🚨", "<!channel> "
	if verdict == VerdictClean {
		emoji, attention = "✅", ""
	}
	return fmt.Sprintf("%s%s *PhishAI Sandbox Alert* — Verdict: *%s*\n🔗 <%s>",
		attention, emoji, strings.ToUpper(verdict), url)
}

// SendChatAlert posts the alert and reports whether the webhook accepted it
func (n *ChatNotifier) SendChatAlert(ctx context.Context, url, verdict string) bool {
	if !n.Configured() {
		n.logger.Warn("Chat webhook not configured")
		return false
	}

	payload := map[string]string{"text": ChatMessage(url, verdict)}
	if _, err := n.client.PostJSON(ctx, n.webhook, payload); err != nil {
		n.logger.Warn("Chat alert failed", zap.String("verdict", verdict), zap.Error(err))
		return false
	}

	n.logger.Debug("Chat alert sent", zap.String("verdict", verdict))
	return true
}
