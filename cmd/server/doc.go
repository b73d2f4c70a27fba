// Package main is the entry point for the PhishGuard sandbox server.
//
// The server loads untrusted URLs in an isolated headless Chromium, records
// what the page does and returns a heuristic risk report.
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, in-flight scans finish first
package main
