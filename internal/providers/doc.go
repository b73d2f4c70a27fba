// Package providers groups the adapters between the sandbox and the outside
// world.
//
// Available Providers:
//   - browser: headless Chromium engine (go-rod with stealth)
//   - alert: chat webhook and SMTP incident notifications
//   - http/client: resilient outbound HTTP for webhooks
package providers
