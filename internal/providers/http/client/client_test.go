package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryMax = 0
	opts.RetryWait = time.Millisecond
	opts.RateLimit = 0
	return opts
}

func TestPostJSON(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "PhishGuard-Sandbox/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(testOptions())
	resp, err := c.PostJSON(context.Background(), server.URL, map[string]string{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "hello", got["text"])
}

func TestPostJSONStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer server.Close()

	c := NewClient(testOptions())
	_, err := c.PostJSON(context.Background(), server.URL, map[string]string{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Equal(t, "invalid_token", statusErr.Body)
	// Client errors never trip the breaker
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestPostJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := testOptions()
	opts.RetryMax = 3
	c := NewClient(opts)

	_, err := c.PostJSON(context.Background(), server.URL, map[string]string{"text": "retry"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostJSONBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(testOptions())
	for i := 0; i < 5; i++ {
		_, err := c.PostJSON(context.Background(), server.URL, map[string]string{})
		require.Error(t, err)
	}
	require.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.PostJSON(context.Background(), server.URL, map[string]string{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
}

func TestPostJSONCancelledContext(t *testing.T) {
	opts := testOptions()
	opts.RateLimit = 0.001
	c := NewClient(opts)

	// Drain the single burst token
	c.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PostJSON(ctx, "http://127.0.0.1:1", map[string]string{})
	assert.Error(t, err)
}
