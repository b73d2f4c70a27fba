package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/providers/http/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func testClient() *client.Client {
	opts := client.DefaultOptions()
	opts.RetryMax = 0
	opts.RateLimit = 0
	opts.Timeout = time.Second
	return client.NewClient(opts)
}

// webhook records every payload text it receives
type webhook struct {
	mu     sync.Mutex
	texts  []string
	status int
}

func (h *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	_ = json.NewDecoder(r.Body).Decode(&payload)

	h.mu.Lock()
	h.texts = append(h.texts, payload["text"])
	status := h.status
	h.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (h *webhook) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...)
}

func TestChatMessage(t *testing.T) {
	tests := []struct {
		name    string
		verdict string
		want    string
	}{
		{
			name:    "clean verdict has no mention",
			verdict: "clean",
			want:    "✅ *PhishAI Sandbox Alert* — Verdict: *CLEAN*\n🔗 <http://a.example>",
		},
		{
			name:    "other verdicts page the channel",
			verdict: VerdictDownloadBlocked,
			want:    "<!channel> 🚨 *PhishAI Sandbox Alert* — Verdict: *DOWNLOAD-ATTEMPT-BLOCKED*\n🔗 <http://a.example>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChatMessage("http://a.example", tt.verdict))
		})
	}
}

func TestSendChatAlert(t *testing.T) {
	hook := &webhook{}
	server := httptest.NewServer(hook)
	defer server.Close()

	n := NewChatNotifier(server.URL, testClient(), nil)
	assert.True(t, n.SendChatAlert(context.Background(), "http://a.example", "phishing"))

	texts := hook.received()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "*PHISHING*")
}

func TestSendChatAlertFailures(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		n := NewChatNotifier("", testClient(), nil)
		assert.False(t, n.Configured())
		assert.False(t, n.SendChatAlert(context.Background(), "http://a.example", "clean"))
	})

	t.Run("non-200 response", func(t *testing.T) {
		server := httptest.NewServer(&webhook{status: http.StatusForbidden})
		defer server.Close()

		n := NewChatNotifier(server.URL, testClient(), nil)
		assert.False(t, n.SendChatAlert(context.Background(), "http://a.example", "clean"))
	})

	t.Run("unreachable", func(t *testing.T) {
		n := NewChatNotifier("http://127.0.0.1:1", testClient(), nil)
		assert.False(t, n.SendChatAlert(context.Background(), "http://a.example", "clean"))
	})
}

func testMailer(deliver func(context.Context, *mail.Client, *mail.Msg) error) *Mailer {
	m := NewMailer(config.Default().Alert, nil)
	m.deliver = deliver
	return m
}

func TestSendEmailAlertRequiresCredentials(t *testing.T) {
	called := false
	m := testMailer(func(context.Context, *mail.Client, *mail.Msg) error {
		called = true
		return nil
	})

	ctx := context.Background()
	assert.False(t, m.SendEmailAlert(ctx, "", "pw", "soc@example.com", "s", "b"))
	assert.False(t, m.SendEmailAlert(ctx, "bot@example.com", "", "soc@example.com", "s", "b"))
	assert.False(t, m.SendEmailAlert(ctx, "bot@example.com", "pw", "", "s", "b"))
	assert.False(t, called)
}

func TestSendEmailAlertMultipart(t *testing.T) {
	var raw bytes.Buffer
	m := testMailer(func(_ context.Context, _ *mail.Client, msg *mail.Msg) error {
		_, err := msg.WriteTo(&raw)
		return err
	})

	ok := m.SendEmailAlert(context.Background(), "bot@example.com", "pw", "soc@example.com",
		DownloadSubject, "A download was blocked during sandbox visit to: http://a.example/?q=<script>")
	require.True(t, ok)

	out := raw.String()
	assert.Contains(t, out, "multipart/alternative")
	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "soc@example.com")
}

func TestSendEmailAlertDeliveryFailure(t *testing.T) {
	m := testMailer(func(context.Context, *mail.Client, *mail.Msg) error {
		return errors.New("535 authentication failed")
	})
	assert.False(t, m.SendEmailAlert(context.Background(), "bot@example.com", "pw", "soc@example.com", "s", "b"))
}

func TestRenderHTML(t *testing.T) {
	m := NewMailer(config.Default().Alert, nil)

	html := m.renderHTML(DownloadSubject, "visit to: http://a.example/<script>alert(1)</script>")
	assert.Contains(t, html, `<h2 style="color: #d9534f;">🚨 🚨 Auto-Download Blocked</h2>`)
	assert.Contains(t, html, emailFooter)
	assert.NotContains(t, html, "<script>")

	benign := m.renderHTML("Scan result: Benign", "nothing found")
	assert.Contains(t, benign, "✅ Scan result: Benign")
}

func TestDispatcherDownloadBlocked(t *testing.T) {
	hook := &webhook{}
	server := httptest.NewServer(hook)
	defer server.Close()

	cfg := config.Default().Alert
	cfg.SlackWebhook = server.URL
	cfg.EmailUser = "bot@example.com"
	cfg.EmailPass = "pw"
	cfg.EmailTo = "soc@example.com"

	var subjects []string
	var mu sync.Mutex
	mailer := testMailer(func(_ context.Context, _ *mail.Client, msg *mail.Msg) error {
		mu.Lock()
		defer mu.Unlock()
		subjects = append(subjects, strings.Join(msg.GetGenHeader(mail.HeaderSubject), ""))
		return nil
	})

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	d := NewDispatcher(cfg, NewChatNotifier(cfg.SlackWebhook, testClient(), nil), mailer, metrics, nil)
	d.DownloadBlocked(context.Background(), "http://evil.example")

	texts := hook.received()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "*DOWNLOAD-ATTEMPT-BLOCKED*")
	assert.Contains(t, texts[0], "<http://evil.example>")

	mu.Lock()
	assert.Equal(t, []string{DownloadSubject}, subjects)
	mu.Unlock()

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("chat", statusSent)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("email", statusSent)))
}

func TestDispatcherSkipsUnconfiguredChannels(t *testing.T) {
	cfg := config.Default().Alert
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	d := NewDispatcher(cfg, NewChatNotifier("", testClient(), nil), NewMailer(cfg, nil), metrics, nil)
	d.DownloadBlocked(context.Background(), "http://evil.example")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("chat", statusSkipped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("email", statusSkipped)))
}

func TestDispatcherRecordsFailures(t *testing.T) {
	server := httptest.NewServer(&webhook{status: http.StatusInternalServerError})
	defer server.Close()

	cfg := config.Default().Alert
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	d := NewDispatcher(cfg, NewChatNotifier(server.URL, testClient(), nil), nil, metrics, nil)
	d.DownloadBlocked(context.Background(), "http://evil.example")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("chat", statusFailed)))
}
