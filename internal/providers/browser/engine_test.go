package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

func TestResourceKind(t *testing.T) {
	tests := []struct {
		in   proto.NetworkResourceType
		want sandbox.ResourceKind
	}{
		{proto.NetworkResourceTypeImage, sandbox.ResourceImage},
		{proto.NetworkResourceTypeFont, sandbox.ResourceFont},
		{proto.NetworkResourceTypeMedia, sandbox.ResourceMedia},
		{proto.NetworkResourceTypeDocument, sandbox.ResourceDocument},
		{proto.NetworkResourceTypeXHR, sandbox.ResourceXHR},
		{"", sandbox.ResourceOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, resourceKind(tt.in))
		})
	}
}

func TestStringifyConsoleArgs(t *testing.T) {
	args := []*proto.RuntimeRemoteObject{
		{Type: proto.RuntimeRemoteObjectTypeString, Value: gson.New("📤 C2 beacon sent")},
		nil,
		{Type: proto.RuntimeRemoteObjectTypeNumber, Value: gson.New(42)},
		{Type: proto.RuntimeRemoteObjectTypeObject, Description: "Error: boom"},
	}

	assert.Equal(t, "📤 C2 beacon sent 42 Error: boom", stringifyConsoleArgs(args))
	assert.Equal(t, "", stringifyConsoleArgs(nil))
}

func TestNewLauncherFlags(t *testing.T) {
	l := newLauncher(context.Background(), sandbox.LaunchOptions{
		Headless: true,
		Flags:    []string{"--no-sandbox", "disable-gpu", "--window-size=1280,800", "--"},
	})

	assert.True(t, l.Has(flags.Flag("no-sandbox")))
	assert.True(t, l.Has(flags.Flag("disable-gpu")))
	assert.Equal(t, "1280,800", l.Get(flags.Flag("window-size")))
	assert.True(t, l.Has(flags.Headless))
}

// TestEngineAgainstChromium drives a real browser. It needs Chromium on the
// host and runs only when PHISHGUARD_BROWSER_TESTS=1.
func TestEngineAgainstChromium(t *testing.T) {
	if os.Getenv("PHISHGUARD_BROWSER_TESTS") != "1" {
		t.Skip("set PHISHGUARD_BROWSER_TESTS=1 to run against a local Chromium")
	}

	var imageRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Fixture</title></head><body>
<img src="/pixel.png">
<script>console.log("👀 Mouse moved"); console.error("Error: beacon failed");</script>
</body></html>`))
	})
	mux.HandleFunc("/pixel.png", func(w http.ResponseWriter, r *http.Request) {
		imageRequests.Add(1)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	engine := NewEngine(zap.NewNop())
	b, err := engine.Launch(ctx, sandbox.LaunchOptions{Headless: true, Flags: sandbox.DefaultLaunchFlags})
	require.NoError(t, err)
	defer b.Close()

	messages := make(chan sandbox.ConsoleMessage, 8)
	policy := sandbox.NewPolicy(nil)
	page, err := b.NewPage(ctx, sandbox.PageOptions{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		Intercept: policy.Allow,
		OnConsole: func(msg sandbox.ConsoleMessage) { messages <- msg },
	})
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, server.URL, 15*time.Second))

	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fixture", title)

	require.NoError(t, page.Mouse().Move(ctx, 100, 100))
	require.NoError(t, page.Mouse().Click(ctx, 300, 250))

	shot, err := page.Screenshot(ctx, true)
	require.NoError(t, err)
	assert.NotEmpty(t, shot)

	select {
	case msg := <-messages:
		assert.Equal(t, "log", msg.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no console message received")
	}
	assert.Equal(t, int32(0), imageRequests.Load())
}
