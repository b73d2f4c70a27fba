// Package config provides 12-factor configuration management for the
// PhishGuard sandbox service.
//
// Configuration is loaded from environment variables (optionally seeded from
// a .env file) with sensible defaults. The heuristic deny-lists are static
// data; they default to the built-in sets and can be replaced wholesale by a
// YAML rules file.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting for /analyze
//   - CORS: Origins allowed to call the API
//   - Sandbox: Browser, timing, concurrency and artifact directories
//   - Alert: Chat webhook and SMTP credentials
//
// Example Usage:
//
//	_ = config.LoadEnvFiles()
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Sandbox limited to %d sessions\n", cfg.Sandbox.MaxConcurrent)
//
// Environment Variables:
//   - PORT, HOST, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED, CORS_ORIGINS
//   - SANDBOX_* (see SandboxConfig)
//   - SLACK_WEBHOOK, EMAIL_USER, EMAIL_PASS, EMAIL_TO, SMTP_SERVER, SMTP_PORT
package config
