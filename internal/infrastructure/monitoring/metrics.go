package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan outcomes used as the "outcome" label
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Sandbox metrics
	ScansTotal       *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	ScanScore        prometheus.Histogram
	SessionsActive   prometheus.Gauge
	AdmissionWait    prometheus.Histogram
	DownloadsBlocked prometheus.Counter

	// Alert metrics
	AlertsTotal   *prometheus.CounterVec
	AlertDuration *prometheus.HistogramVec

	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalErrors      int64   `json:"total_errors"`
	ScansCompleted   int64   `json:"scans_completed"`
	ScansFailed      int64   `json:"scans_failed"`
	ActiveSessions   int64   `json:"active_sessions"`
	DownloadsBlocked int64   `json:"downloads_blocked"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered on reg.
// A nil registerer yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishguard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phishguard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phishguard_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phishguard_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		ScansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishguard_scans_total",
				Help: "Total number of sandbox scans by outcome",
			},
			[]string{"outcome"},
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishguard_scan_duration_seconds",
				Help:    "Wall-clock duration of a sandbox scan",
				Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 30, 60, 90},
			},
		),
		ScanScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishguard_scan_heuristic_score",
				Help:    "Distribution of heuristic scores",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "phishguard_sessions_active",
				Help: "Number of sandbox sessions currently holding a browser",
			},
		),
		AdmissionWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishguard_admission_wait_seconds",
				Help:    "Time a scan waited for a concurrency slot",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 10, 30, 60},
			},
		),
		DownloadsBlocked: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "phishguard_downloads_blocked_total",
				Help: "Total number of forced downloads blocked",
			},
		),

		AlertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishguard_alerts_total",
				Help: "Total number of alert deliveries by channel and status",
			},
			[]string{"channel", "status"},
		),
		AlertDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phishguard_alert_duration_seconds",
				Help:    "Alert delivery duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"channel"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SessionOpened marks a session as holding a browser
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// SessionClosed releases a session previously marked open
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// AdmissionWaited records time spent waiting for a concurrency slot
func (m *Metrics) AdmissionWaited(d time.Duration) {
	m.AdmissionWait.Observe(d.Seconds())
}

// ScanFinished records the outcome of a scan
func (m *Metrics) ScanFinished(outcome string, duration time.Duration, score int) {
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(duration.Seconds())
	if outcome == OutcomeCompleted {
		m.ScanScore.Observe(float64(score))
	}

	m.mu.Lock()
	switch outcome {
	case OutcomeCompleted:
		m.snapshot.ScansCompleted++
	default:
		m.snapshot.ScansFailed++
	}
	m.mu.Unlock()
}

// DownloadBlocked increments the blocked download counter
func (m *Metrics) DownloadBlocked() {
	m.DownloadsBlocked.Inc()
	m.mu.Lock()
	m.snapshot.DownloadsBlocked++
	m.mu.Unlock()
}

// RecordAlert records an alert delivery attempt
func (m *Metrics) RecordAlert(channel, status string, duration time.Duration) {
	m.AlertsTotal.WithLabelValues(channel, status).Inc()
	m.AlertDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// Snapshot returns the current values for the JSON health endpoint
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
