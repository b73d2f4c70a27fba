package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Page is a rod page bound to one scan
type Page struct {
	page   *rod.Page
	router *rod.HijackRouter
	cancel context.CancelFunc
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// intercept routes every request through allow before it is sent
func (p *Page) intercept(allow func(sandbox.ResourceKind) bool) error {
	router := p.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		kind := resourceKind(h.Request.Type())
		if !allow(kind) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("install request interception: %w", err)
	}

	p.router = router
	go router.Run()
	return nil
}

// resourceKind maps DevTools resource types ("Image", "XHR") to sandbox kinds
func resourceKind(t proto.NetworkResourceType) sandbox.ResourceKind {
	if t == "" {
		return sandbox.ResourceOther
	}
	return sandbox.ResourceKind(strings.ToLower(string(t)))
}

// Navigate loads url and waits for DOMContentLoaded
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := p.page.Context(navCtx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()

	return navCtx.Err()
}

// Mouse returns the page's pointer
func (p *Page) Mouse() sandbox.Mouse {
	return &Mouse{page: p.page}
}

// Title returns document.title
func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// HTML returns the rendered document markup
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Screenshot captures the page as PNG
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close stops interception and event listeners, then closes the tab
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		if p.router != nil {
			if err := p.router.Stop(); err != nil {
				p.logger.Debug("Failed to stop request router", zap.Error(err))
			}
		}
		p.closeErr = p.page.Close()
		p.cancel()
	})
	return p.closeErr
}

// Mouse dispatches input events through the DevTools protocol
type Mouse struct {
	page *rod.Page
}

func (m *Mouse) Move(ctx context.Context, x, y float64) error {
	return m.page.Context(ctx).Mouse.MoveTo(proto.Point{X: x, Y: y})
}

// Wheel scrolls by (dx, dy) in a single step
func (m *Mouse) Wheel(ctx context.Context, dx, dy float64) error {
	return m.page.Context(ctx).Mouse.Scroll(dx, dy, 1)
}

// Click moves to (x, y) and presses the left button once
func (m *Mouse) Click(ctx context.Context, x, y float64) error {
	mouse := m.page.Context(ctx).Mouse
	if err := mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return err
	}
	return mouse.Click(proto.InputMouseButtonLeft, 1)
}
