package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	navigationFailedFormat = "⚠️ Page load failed. This page may be inactive, unreachable, or the URL is invalid.\nDetails: %s"
	unknownTitle           = "Unknown"
)

// State is a step of the session lifecycle
type State int

const (
	StateInit State = iota
	StateLaunched
	StateNavigating
	StateNavigationFailed
	StateLoaded
	StateInteracting
	StateScoring
	StateCapturingScreenshot
	StateTeardown
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateLaunched:
		return "LAUNCHED"
	case StateNavigating:
		return "NAVIGATING"
	case StateNavigationFailed:
		return "NAVIGATION_FAILED"
	case StateLoaded:
		return "LOADED"
	case StateInteracting:
		return "INTERACTING"
	case StateScoring:
		return "SCORING"
	case StateCapturingScreenshot:
		return "CAPTURING_SCREENSHOT"
	case StateTeardown:
		return "TEARDOWN"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// SessionConfig holds per-session settings
type SessionConfig struct {
	Launch            LaunchOptions
	UserAgent         string
	NavigationTimeout time.Duration
	Interaction       Interaction
	AlertTimeout      time.Duration
	AlertJoinTimeout  time.Duration
}

// Session runs one URL through an isolated browser. A Session is single use.
type Session struct {
	cfg      SessionConfig
	engine   Engine
	policy   *Policy
	scorer   *Scorer
	writer   *Writer
	alerter  Alerter
	observer Observer
	logger   *zap.Logger

	mu    sync.Mutex
	state State
	trail []State

	browser  Browser
	page     Page
	rec      *Recorder
	teardown sync.Once
}

// NewSession wires a session from its collaborators
func NewSession(cfg SessionConfig, engine Engine, policy *Policy, scorer *Scorer, writer *Writer, alerter Alerter, observer Observer, logger *zap.Logger) *Session {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:      cfg,
		engine:   engine,
		policy:   policy,
		scorer:   scorer,
		writer:   writer,
		alerter:  alerter,
		observer: observer,
		logger:   logger,
		state:    StateInit,
		trail:    []State{StateInit},
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trail returns every state the session passed through
func (s *Session) Trail() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.trail...)
}

func (s *Session) enter(state State) {
	s.mu.Lock()
	from := s.state
	s.state = state
	s.trail = append(s.trail, state)
	s.mu.Unlock()

	s.logger.Debug("Session state change", zap.Stringer("from", from), zap.Stringer("to", state))
}

// Run scans report.URL and returns the finished report. Every failure is
// absorbed into the report and browser resources are released exactly once.
func (s *Session) Run(ctx context.Context, report Report) (result Report) {
	s.rec = NewRecorder(ctx, report, s.alerter, s.cfg.AlertTimeout, s.observer, s.logger)

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Session panicked", zap.Any("panic", p), zap.Stack("stack"))
			s.rec.Fail(fmt.Sprintf("Sandbox Error: %v", p))
		}
		s.close()
		result = s.rec.Freeze()
		s.enter(StateDone)
	}()

	if err := s.open(ctx); err != nil {
		msg := fmt.Sprintf("Sandbox Error: %v", err)
		s.rec.Fail(msg)
		s.logger.Error("Failed to open browser session", zap.Error(err))
		return
	}

	if err := s.navigate(ctx, report.URL); err != nil {
		s.enter(StateNavigationFailed)
		msg := fmt.Sprintf(navigationFailedFormat, err)
		s.rec.Update(func(r *Report) { r.Error = &msg })
		s.rec.AppendConsole(msg)
		s.rec.Note(fmt.Sprintf("Page.goto error: %v", err))
		s.logger.Info("Navigation failed", zap.Error(fmt.Errorf("%w: %v", ErrNavigation, err)))
		return
	}
	s.enter(StateLoaded)

	s.interact(ctx)

	if err := s.score(ctx, report.URL); err != nil {
		s.rec.Fail(fmt.Sprintf("Sandbox Error: %v", err))
		s.logger.Error("Failed to read page content", zap.Error(err))
		return
	}

	s.capture(ctx, report.URL)
	return
}

func (s *Session) open(ctx context.Context) error {
	browser, err := s.engine.Launch(ctx, s.cfg.Launch)
	if err != nil {
		return fmt.Errorf("%w: launch browser: %v", ErrSession, err)
	}
	s.browser = browser
	s.enter(StateLaunched)

	page, err := browser.NewPage(ctx, PageOptions{
		UserAgent:  s.cfg.UserAgent,
		Intercept:  s.policy.Allow,
		OnConsole:  s.rec.OnConsole,
		OnDownload: s.rec.OnDownload,
	})
	if err != nil {
		return fmt.Errorf("%w: open page: %v", ErrSession, err)
	}
	s.page = page
	return nil
}

func (s *Session) navigate(ctx context.Context, target string) error {
	s.enter(StateNavigating)
	return s.page.Navigate(ctx, target, s.cfg.NavigationTimeout)
}

func (s *Session) interact(ctx context.Context) {
	s.enter(StateInteracting)
	if err := s.cfg.Interaction.Perform(ctx, s.page.Mouse()); err != nil {
		s.rec.Note(fmt.Sprintf("Mouse simulation failed: %v", err))
		s.logger.Debug("Interaction failed", zap.Error(err))
	} else {
		s.rec.Note("Mouse movement & scroll simulation performed.")
	}
	s.cfg.Interaction.SettleDown()
}

func (s *Session) score(ctx context.Context, target string) error {
	s.enter(StateScoring)

	html, err := s.page.HTML(ctx)
	if err != nil {
		return fmt.Errorf("read page content: %w", err)
	}

	title, err := s.page.Title(ctx)
	if err != nil {
		title = titleFromHTML(html)
		s.logger.Debug("Title lookup failed", zap.Error(err), zap.String("fallback", title))
	}

	snap := s.rec.Snapshot()
	breakdown := s.scorer.Score(ScoreInput{
		URL:              target,
		Title:            title,
		HTML:             html,
		ConsoleErrors:    len(snap.CategorizedLogs.Errors),
		DownloadDetected: snap.AutoDownloadDetected,
	})

	s.rec.Update(func(r *Report) {
		r.Title = title
		r.HeuristicScore = breakdown.Total
		r.Breakdown = &breakdown
		r.Debug = append(r.Debug, fmt.Sprintf("Heuristic score: %d", breakdown.Total))
	})
	return nil
}

func (s *Session) capture(ctx context.Context, target string) {
	s.enter(StateCapturingScreenshot)

	data, err := s.page.Screenshot(ctx, true)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrScreenshot, err)
	} else {
		var path string
		if path, err = s.writer.SaveScreenshot(target, data); err == nil {
			s.rec.Update(func(r *Report) { r.ScreenshotPath = &path })
			return
		}
	}

	s.rec.Note(fmt.Sprintf("Screenshot failed: %v", err))
	s.logger.Warn("Screenshot failed", zap.Error(err))
}

// close releases the page and browser, then waits for pending alerts
func (s *Session) close() {
	s.teardown.Do(func() {
		s.enter(StateTeardown)

		if s.page != nil {
			if err := s.page.Close(); err != nil {
				s.logger.Debug("Failed to close page", zap.Error(err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				s.logger.Warn("Failed to close browser", zap.Error(err))
			}
		}

		if s.rec != nil && !s.rec.WaitAlerts(s.cfg.AlertJoinTimeout) {
			s.rec.Note(fmt.Sprintf("Alert dispatch still pending after %s", s.cfg.AlertJoinTimeout))
			s.logger.Warn("Alert dispatch still pending", zap.Duration("waited", s.cfg.AlertJoinTimeout))
		}
	})
}

// titleFromHTML reads <title> from rendered markup
func titleFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return unknownTitle
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return unknownTitle
}
