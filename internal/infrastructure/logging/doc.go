// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for log shipping
//   - Development: colored console output
//
// Scan-scoped loggers carry the scan_id and url fields so that every line
// emitted while a URL is being detonated can be correlated with the
// persisted session log.
//
// Example Usage:
//
//	logger := logging.FromSettings("info", false)
//	scanLog := logger.ForScan(scanID, url)
//	scanLog.Info("navigation finished", zap.Duration("took", d))
package logging
