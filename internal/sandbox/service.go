package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/shared/id"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Service is the entry point for URL analysis
type Service struct {
	cfg      config.SandboxConfig
	alertCfg config.AlertConfig
	engine   Engine
	policy   *Policy
	scorer   *Scorer
	writer   *Writer
	alerter  Alerter
	observer Observer
	logger   *logging.Logger
	sem      *semaphore.Weighted
}

// Option customizes a Service
type Option func(*Service)

// WithObserver attaches a metrics observer
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithWriter replaces the default on-disk writer
func WithWriter(w *Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// NewService creates a sandbox service. alerter may be nil.
func NewService(cfg *config.Config, engine Engine, alerter Alerter, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}

	maxConcurrent := cfg.Sandbox.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	s := &Service{
		cfg:      cfg.Sandbox,
		alertCfg: cfg.Alert,
		engine:   engine,
		policy:   NewPolicy(cfg.Sandbox.BlockedResourceKinds),
		scorer:   NewScorer(cfg.Rules),
		writer:   NewWriter(cfg.Sandbox.LogDir, cfg.Sandbox.ScreenshotDir, logger.Logger),
		alerter:  alerter,
		observer: nopObserver{},
		logger:   logger,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Writer returns the writer holding persisted reports
func (s *Service) Writer() *Writer {
	return s.writer
}

// Scorer returns the heuristic scorer
func (s *Service) Scorer() *Scorer {
	return s.scorer
}

// Analyze scans url and returns its report. It never fails: every problem
// is recorded in the report. The call blocks until the session is torn down.
func (s *Service) Analyze(ctx context.Context, url string) Report {
	scanID := id.NewScanID()
	log := s.logger.ForScan(scanID.String(), url)
	start := time.Now()

	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	report := NewReport(url)
	report.ScanID = scanID.String()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		msg := fmt.Sprintf("Sandbox Error: admission cancelled: %v", err)
		report.Error = &msg
		report.Debug = append(report.Debug, msg)
		log.Warn("Scan rejected while waiting for a slot", zap.Error(err))
		s.observer.ScanFinished(OutcomeRejected, time.Since(start), 0)
		return s.writer.Persist(report)
	}
	s.observer.AdmissionWaited(time.Since(start))

	log.Info("Starting sandbox scan")

	session := NewSession(s.sessionConfig(), s.engine, s.policy, s.scorer, s.writer, s.alerter, s.observer, log)
	report = s.run(ctx, session, report)

	outcome := OutcomeCompleted
	if report.Failed() {
		outcome = OutcomeFailed
	}
	duration := time.Since(start)
	s.observer.ScanFinished(outcome, duration, report.HeuristicScore)

	log.Info("Sandbox scan finished",
		zap.String("outcome", outcome),
		zap.Stringer("state", session.State()),
		zap.Int("score", report.HeuristicScore),
		zap.Bool("auto_download", report.AutoDownloadDetected),
		zap.Duration("duration", duration))

	return s.writer.Persist(report)
}

func (s *Service) run(ctx context.Context, session *Session, report Report) Report {
	defer s.sem.Release(1)

	s.observer.SessionOpened()
	defer s.observer.SessionClosed()

	return session.Run(ctx, report)
}

func (s *Service) sessionConfig() SessionConfig {
	return SessionConfig{
		Launch: LaunchOptions{
			Bin:      s.cfg.BrowserBin,
			Headless: s.cfg.Headless,
			Flags:    DefaultLaunchFlags,
		},
		UserAgent:         s.cfg.UserAgent,
		NavigationTimeout: s.cfg.NavigationTimeout,
		Interaction: Interaction{
			Pause:  s.cfg.InteractionPause,
			Settle: s.cfg.SettleDelay,
		},
		AlertTimeout:     s.alertCfg.Timeout,
		AlertJoinTimeout: s.cfg.AlertJoinTimeout,
	}
}
