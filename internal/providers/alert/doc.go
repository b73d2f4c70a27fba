// Package alert delivers sandbox incidents to humans.
//
// Two channels are supported: a Slack-style incoming webhook and SMTP
// e-mail. Delivery is best effort; failures are logged and counted but
// never reach the scan report.
package alert
