package sandbox

import (
	"context"
	"time"
)

// ResourceKind is the browser's classification of an outgoing request
type ResourceKind string

const (
	ResourceDocument   ResourceKind = "document"
	ResourceStylesheet ResourceKind = "stylesheet"
	ResourceScript     ResourceKind = "script"
	ResourceImage      ResourceKind = "image"
	ResourceFont       ResourceKind = "font"
	ResourceMedia      ResourceKind = "media"
	ResourceXHR        ResourceKind = "xhr"
	ResourceFetch      ResourceKind = "fetch"
	ResourceWebSocket  ResourceKind = "websocket"
	ResourceOther      ResourceKind = "other"
)

// ConsoleMessage is one console API call made by the page
type ConsoleMessage struct {
	Type string
	Text string
}

// Download is a download the page tried to start.
// Cancel aborts it before any bytes reach disk.
type Download struct {
	URL               string
	SuggestedFilename string
	Cancel            func() error
}

// LaunchOptions configures the browser process
type LaunchOptions struct {
	Bin      string
	Headless bool
	Flags    []string
}

// PageOptions configures an isolated page. Hooks are installed before
// the page is returned, so they observe everything from the first navigation.
type PageOptions struct {
	UserAgent  string
	Intercept  func(kind ResourceKind) bool
	OnConsole  func(msg ConsoleMessage)
	OnDownload func(d Download)
}

// Engine launches browser processes
type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser process
type Browser interface {
	// NewPage opens a page in a fresh isolated context with downloads denied
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
}

// Page is a live tab
type Page interface {
	// Navigate loads url and waits for DOMContentLoaded or the timeout
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Mouse() Mouse
	Title(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	// Screenshot returns PNG bytes
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	Close() error
}

// Mouse drives low-level pointer input
type Mouse interface {
	Move(ctx context.Context, x, y float64) error
	Wheel(ctx context.Context, dx, dy float64) error
	Click(ctx context.Context, x, y float64) error
}

// DefaultLaunchFlags hardens the browser for untrusted content
var DefaultLaunchFlags = []string{
	"no-sandbox",
	"disable-gpu",
	"disable-dev-shm-usage",
	"disable-background-networking",
	"disable-extensions",
	"disable-webgl",
	"mute-audio",
	"hide-scrollbars",
}
