package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

const plainHTML = `<html><head><title>Example Domain</title></head><body><p>Hello.</p></body></html>`

// fakeEngine hands out fakeBrowsers whose pages come from newPage
type fakeEngine struct {
	launchErr  error
	newPageErr error
	newPage    func() *fakePage

	mu         sync.Mutex
	launches   int
	launchOpts LaunchOptions
	browsers   []*fakeBrowser
	pages      []*fakePage
}

func (e *fakeEngine) Launch(_ context.Context, opts LaunchOptions) (Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.launches++
	e.launchOpts = opts
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	b := &fakeBrowser{engine: e}
	e.browsers = append(e.browsers, b)
	return b, nil
}

func (e *fakeEngine) lastPage() *fakePage {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pages) == 0 {
		return nil
	}
	return e.pages[len(e.pages)-1]
}

func (e *fakeEngine) lastBrowser() *fakeBrowser {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.browsers) == 0 {
		return nil
	}
	return e.browsers[len(e.browsers)-1]
}

type fakeBrowser struct {
	engine *fakeEngine
	closes atomic.Int32
}

func (b *fakeBrowser) NewPage(_ context.Context, opts PageOptions) (Page, error) {
	if b.engine.newPageErr != nil {
		return nil, b.engine.newPageErr
	}
	p := &fakePage{html: plainHTML, title: "Example Domain", shot: pngBytes}
	if b.engine.newPage != nil {
		p = b.engine.newPage()
	}
	if p.mouse == nil {
		p.mouse = &fakeMouse{}
	}
	p.opts = opts

	b.engine.mu.Lock()
	b.engine.pages = append(b.engine.pages, p)
	b.engine.mu.Unlock()
	return p, nil
}

func (b *fakeBrowser) Close() error {
	b.closes.Add(1)
	return nil
}

type fakePage struct {
	opts PageOptions

	// onNavigate runs inside Navigate to simulate page activity
	onNavigate func(p *fakePage)
	navErr     error
	navBlock   bool

	title    string
	titleErr error
	html     string
	htmlErr  error
	shot     []byte
	shotErr  error
	mouse    *fakeMouse

	navigatedURL string
	navTimeout   time.Duration
	allowed      map[ResourceKind]bool
	closes       atomic.Int32
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.navigatedURL = url
	p.navTimeout = timeout

	p.allowed = make(map[ResourceKind]bool)
	for _, kind := range []ResourceKind{ResourceDocument, ResourceScript, ResourceImage, ResourceFont, ResourceMedia} {
		p.allowed[kind] = p.opts.Intercept(kind)
	}

	if p.onNavigate != nil {
		p.onNavigate(p)
	}
	if p.navBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.navErr
}

func (p *fakePage) console(msgType, text string) {
	p.opts.OnConsole(ConsoleMessage{Type: msgType, Text: text})
}

func (p *fakePage) download(cancelled *atomic.Bool) {
	p.opts.OnDownload(Download{
		URL:               "http://evil.example/payload.exe",
		SuggestedFilename: "payload.exe",
		Cancel: func() error {
			if cancelled != nil {
				cancelled.Store(true)
			}
			return nil
		},
	})
}

func (p *fakePage) Mouse() Mouse { return p.mouse }

func (p *fakePage) Title(context.Context) (string, error) { return p.title, p.titleErr }

func (p *fakePage) HTML(context.Context) (string, error) { return p.html, p.htmlErr }

func (p *fakePage) Screenshot(context.Context, bool) ([]byte, error) { return p.shot, p.shotErr }

func (p *fakePage) Close() error {
	p.closes.Add(1)
	return nil
}

type fakeMouse struct {
	mu     sync.Mutex
	ops    []string
	failOn string
}

func (m *fakeMouse) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op == m.failOn {
		return errors.New("input dispatch refused")
	}
	m.ops = append(m.ops, op)
	return nil
}

func (m *fakeMouse) Move(_ context.Context, x, y float64) error {
	return m.record(opName("move", x, y))
}

func (m *fakeMouse) Wheel(_ context.Context, dx, dy float64) error {
	return m.record(opName("wheel", dx, dy))
}

func (m *fakeMouse) Click(_ context.Context, x, y float64) error {
	return m.record(opName("click", x, y))
}

func opName(kind string, a, b float64) string {
	return fmt.Sprintf("%s(%g,%g)", kind, a, b)
}

// fakeAlerter counts DownloadBlocked calls
type fakeAlerter struct {
	calls atomic.Int32
	delay time.Duration
	urls  chan string
}

func newFakeAlerter() *fakeAlerter {
	return &fakeAlerter{urls: make(chan string, 16)}
}

func (a *fakeAlerter) DownloadBlocked(ctx context.Context, url string) {
	a.calls.Add(1)
	a.urls <- url
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
		}
	}
}

type fakeObserver struct {
	mu        sync.Mutex
	opened    int
	closed    int
	outcomes  []string
	downloads int
	active    int
	maxActive int
}

func (o *fakeObserver) SessionOpened() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
	o.active++
	if o.active > o.maxActive {
		o.maxActive = o.active
	}
}

func (o *fakeObserver) SessionClosed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
	o.active--
}

func (o *fakeObserver) AdmissionWaited(time.Duration) {}

func (o *fakeObserver) ScanFinished(outcome string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *fakeObserver) DownloadBlocked() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.downloads++
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Sandbox.LogDir = t.TempDir()
	cfg.Sandbox.ScreenshotDir = t.TempDir()
	cfg.Sandbox.InteractionPause = 0
	cfg.Sandbox.SettleDelay = 0
	cfg.Sandbox.NavigationTimeout = time.Second
	cfg.Sandbox.ScanTimeout = 5 * time.Second
	cfg.Sandbox.AlertJoinTimeout = time.Second
	cfg.Alert.Timeout = time.Second
	return cfg
}
