package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Engine launches a dedicated Chromium process per scan through the
// DevTools protocol.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a rod-backed engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.Named("browser")}
}

// Launch starts Chromium and connects to it. The process lives until the
// returned Browser is closed or ctx is done.
func (e *Engine) Launch(ctx context.Context, opts sandbox.LaunchOptions) (sandbox.Browser, error) {
	l := newLauncher(ctx, opts)

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	e.logger.Debug("Browser launched", zap.String("control_url", controlURL))
	return &Browser{browser: b, launcher: l, logger: e.logger}, nil
}

// newLauncher translates launch options into launcher flags. Flags may be
// written with or without leading dashes and with an optional =value.
func newLauncher(ctx context.Context, opts sandbox.LaunchOptions) *launcher.Launcher {
	l := launcher.New().Context(ctx).Headless(opts.Headless).Leakless(true)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	for _, raw := range opts.Flags {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// Browser is one running Chromium process
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewPage opens a stealth page inside a fresh incognito context. Downloads
// are denied for the context and reported through opts.OnDownload; request
// interception and console capture are running before NewPage returns.
func (b *Browser) NewPage(ctx context.Context, opts sandbox.PageOptions) (sandbox.Page, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	err = proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorDeny,
		BrowserContextID: incognito.BrowserContextID,
		EventsEnabled:    true,
	}.Call(b.browser)
	if err != nil {
		return nil, fmt.Errorf("deny downloads: %w", err)
	}

	rp, err := stealth.Page(incognito)
	if err != nil {
		return nil, fmt.Errorf("create stealth page: %w", err)
	}

	pageCtx, cancel := context.WithCancel(ctx)
	p := &Page{
		page:   rp.Context(pageCtx),
		cancel: cancel,
		logger: b.logger,
	}

	if opts.UserAgent != "" {
		if err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			p.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	if opts.Intercept != nil {
		if err := p.intercept(opts.Intercept); err != nil {
			p.Close()
			return nil, err
		}
	}

	if opts.OnConsole != nil {
		wait := p.page.EachEvent(func(ev *proto.RuntimeConsoleAPICalled) {
			opts.OnConsole(sandbox.ConsoleMessage{
				Type: string(ev.Type),
				Text: stringifyConsoleArgs(ev.Args),
			})
		})
		go wait()
	}

	if opts.OnDownload != nil {
		contextID := incognito.BrowserContextID
		wait := incognito.Context(pageCtx).EachEvent(func(ev *proto.BrowserDownloadWillBegin) {
			guid := ev.GUID
			opts.OnDownload(sandbox.Download{
				URL:               ev.URL,
				SuggestedFilename: ev.SuggestedFilename,
				Cancel: func() error {
					return proto.BrowserCancelDownload{GUID: guid, BrowserContextID: contextID}.Call(b.browser)
				},
			})
		})
		go wait()
	}

	return p, nil
}

// Close shuts the browser down and removes its profile directory
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.browser.Close()
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.logger.Debug("Browser closed")
	})
	return b.closeErr
}

// stringifyConsoleArgs joins console arguments the way DevTools prints them
func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
