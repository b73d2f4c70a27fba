// Package http provides the REST handlers of the sandbox service.
//
// Endpoints:
//
//	GET  /               liveness message
//	GET  /health         health with a metrics snapshot
//	POST /analyze        run a scan, returns {"sandbox_report": ...}
//	GET  /reports        list persisted session logs
//	GET  /reports/:name  read one session log
package http
