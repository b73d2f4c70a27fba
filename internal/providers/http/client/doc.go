// Package client provides the outbound HTTP client used for alert webhooks.
//
// Built on go-resty/resty with a go-retryablehttp transport:
//   - Retries with exponential backoff on connection errors and 5xx
//   - Per-client rate limiting (golang.org/x/time/rate)
//   - Circuit breaker so a dead webhook cannot stall alert delivery
//   - Context-based cancellation
//
// Example Usage:
//
//	c := client.NewClient(client.DefaultOptions())
//	resp, err := c.PostJSON(ctx, webhookURL, map[string]string{"text": "..."})
package client
