package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	downloadBlockedLine = "[ALERT] Auto-download attempt blocked"
	downloadAlertNote   = "Auto-download alert triggered."
)

// Alerter is notified when a page tries to force a download.
// Implementations must return once ctx is done.
type Alerter interface {
	DownloadBlocked(ctx context.Context, url string)
}

// Classify files a console message into exactly one bucket. The first rule
// that matches wins: error, then warning, then info (or a log-type call).
func Classify(msgType, text string) Category {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "error"):
		return CategoryErrors
	case strings.Contains(lower, "warning"):
		return CategoryWarnings
	case strings.Contains(lower, "info") || strings.Contains(strings.ToLower(msgType), "log"):
		return CategoryInfo
	default:
		return CategoryOther
	}
}

// Recorder accumulates page events into a report. Hooks may fire from
// browser goroutines at any time between installation and Freeze.
type Recorder struct {
	mu       sync.Mutex
	report   Report
	frozen   bool
	draining bool

	alerter      Alerter
	alertCtx     context.Context
	alertTimeout time.Duration
	alerts       sync.WaitGroup

	observer Observer
	logger   *zap.Logger
}

// NewRecorder starts recording into report. Alert tasks run on a context
// detached from ctx so a finished scan does not abort delivery.
func NewRecorder(ctx context.Context, report Report, alerter Alerter, alertTimeout time.Duration, observer Observer, logger *zap.Logger) *Recorder {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		report:       report,
		alerter:      alerter,
		alertCtx:     context.WithoutCancel(ctx),
		alertTimeout: alertTimeout,
		observer:     observer,
		logger:       logger,
	}
}

// OnConsole handles one console API call
func (r *Recorder) OnConsole(msg ConsoleMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}

	r.report.ConsoleLogs = append(r.report.ConsoleLogs, fmt.Sprintf("[%s] %s", msg.Type, msg.Text))
	r.report.CategorizedLogs.add(Classify(msg.Type, msg.Text), msg.Text)
}

// OnDownload cancels a forced download, flags the report and schedules alerts
func (r *Recorder) OnDownload(d Download) {
	if d.Cancel != nil {
		if err := d.Cancel(); err != nil {
			r.logger.Warn("Failed to cancel download", zap.String("download_url", d.URL), zap.Error(err))
		}
	}

	r.mu.Lock()
	if r.frozen {
		r.mu.Unlock()
		return
	}
	r.appendConsoleLocked(downloadBlockedLine)
	r.report.AutoDownloadDetected = true
	r.report.Debug = append(r.report.Debug, downloadAlertNote)
	target := r.report.URL
	schedule := r.alerter != nil && !r.draining
	if schedule {
		r.alerts.Add(1)
	}
	r.mu.Unlock()

	r.observer.DownloadBlocked()
	r.logger.Warn("Blocked forced download",
		zap.String("download_url", d.URL),
		zap.String("filename", d.SuggestedFilename))

	if !schedule {
		return
	}
	go func() {
		defer r.alerts.Done()
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if r.alertTimeout > 0 {
			ctx, cancel = context.WithTimeout(r.alertCtx, r.alertTimeout)
		} else {
			ctx, cancel = context.WithCancel(r.alertCtx)
		}
		defer cancel()
		r.alerter.DownloadBlocked(ctx, target)
	}()
}

// AppendConsole adds a line produced by the sandbox itself
func (r *Recorder) AppendConsole(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.frozen {
		r.appendConsoleLocked(line)
	}
}

// appendConsoleLocked keeps every console line represented in one bucket
func (r *Recorder) appendConsoleLocked(line string) {
	r.report.ConsoleLogs = append(r.report.ConsoleLogs, line)
	r.report.CategorizedLogs.add(Classify("", line), line)
}

// Note appends a debug line
func (r *Recorder) Note(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.frozen {
		r.report.Debug = append(r.report.Debug, line)
	}
}

// Fail records msg as the scan error and in the debug trail
func (r *Recorder) Fail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	r.report.Error = &msg
	r.report.Debug = append(r.report.Debug, msg)
}

// Update runs fn with exclusive access to the report
func (r *Recorder) Update(fn func(*Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.frozen {
		fn(&r.report)
	}
}

// Snapshot returns a copy of the report so far
func (r *Recorder) Snapshot() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.Clone()
}

// WaitAlerts blocks until every scheduled alert finished or timeout elapsed.
// It reports whether all alerts completed.
func (r *Recorder) WaitAlerts(timeout time.Duration) bool {
	// Downloads seen from here on are still recorded but not alerted
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.alerts.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Freeze stops recording and returns the final report
func (r *Recorder) Freeze() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r.report.Clone()
}
