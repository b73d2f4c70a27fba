package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned while the breaker rejects calls
var ErrUnavailable = errors.New("endpoint unavailable: circuit breaker open")

// StatusError reports a response outside the 2xx range
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a Client
type Options struct {
	Name      string
	Timeout   time.Duration
	RetryMax  int
	RetryWait time.Duration
	RateLimit float64 // requests per second, <= 0 means unlimited
	UserAgent string
	Logger    *zap.Logger
}

// DefaultOptions returns options suited to outbound alert webhooks
func DefaultOptions() Options {
	return Options{
		Name:      "webhook",
		Timeout:   10 * time.Second,
		RetryMax:  2,
		RetryWait: 500 * time.Millisecond,
		RateLimit: 1,
		UserAgent: "PhishGuard-Sandbox/1.0",
	}
}

// Client wraps resty with retries, rate limiting and a circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	mu      sync.RWMutex
}

// NewClient creates an HTTP client for outbound notifications
func NewClient(opts Options) *Client {
	if opts.Name == "" {
		opts.Name = "webhook"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWait
	retryClient.RetryWaitMax = 4 * opts.RetryWait
	retryClient.Logger = nil
	if opts.Logger != nil {
		retryClient.Logger = leveledLogger{opts.Logger.Sugar()}
	}
	// Hand the final response back instead of a generic "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	breaker := resilience.New(opts.Name, resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isSuccessful,
	})

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
	}
}

// isSuccessful keeps client-side rejections (4xx) from tripping the breaker
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < http.StatusInternalServerError
	}
	return false
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// PostJSON sends body as JSON and fails on any non-2xx status
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*resty.Response, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, ErrUnavailable
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		c.mu.RLock()
		req := c.resty.R().SetContext(ctx)
		c.mu.RUnlock()

		resp, err := req.
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(url)
		if err != nil {
			return resp, err
		}
		if !resp.IsSuccess() {
			return resp, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return resp, err
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// leveledLogger adapts zap to retryablehttp's logging interface
type leveledLogger struct {
	sugar *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
