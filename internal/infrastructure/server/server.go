package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/PhishGuard/backend/internal/api/http"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/api/middleware"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/providers/alert"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/providers/browser"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	service  *sandbox.Service
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
}

// Option customizes server construction
type Option func(*options)

type options struct {
	logger *logging.Logger
	engine sandbox.Engine
}

// WithLogger replaces the logger built from config
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEngine replaces the rod browser engine
func WithEngine(e sandbox.Engine) Option {
	return func(o *options) { o.engine = e }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing PhishGuard sandbox server",
		zap.String("port", cfg.Server.Port),
		zap.Int64("max_concurrent", cfg.Sandbox.MaxConcurrent),
		zap.Duration("scan_timeout", cfg.Sandbox.ScanTimeout),
	)

	// Initialize metrics first (needed by other components)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	engine := o.engine
	if engine == nil {
		engine = browser.NewEngine(logger.Named("browser"))
	}

	dispatcher := newDispatcher(cfg.Alert, metrics, logger)
	service := sandbox.NewService(cfg, engine, dispatcher, logger, sandbox.WithObserver(metrics))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.CORS.Origins)))

	handlers := apihttp.NewHandlers(service, service.Writer(), metrics, logger.Named("api"))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Scan submission is the expensive route, so only it is rate limited
	analyze := []gin.HandlerFunc{handlers.Analyze}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		analyze = append([]gin.HandlerFunc{limit}, analyze...)
	}
	router.POST("/analyze", analyze...)

	router.GET("/reports", handlers.ListReports)
	router.GET("/reports/:name", handlers.GetReport)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		service:  service,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
	}, nil
}

func newDispatcher(cfg config.AlertConfig, metrics *monitoring.Metrics, logger *logging.Logger) *alert.Dispatcher {
	opts := client.DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.Logger = logger.Named("webhook")

	chat := alert.NewChatNotifier(cfg.SlackWebhook, client.NewClient(opts), logger.Named("chat"))
	mailer := alert.NewMailer(cfg, logger.Named("mail"))

	if !chat.Configured() {
		logger.Warn("SLACK_WEBHOOK not set, chat alerts disabled")
	}
	if !cfg.EmailConfigured() {
		logger.Warn("EMAIL_USER, EMAIL_PASS or EMAIL_TO not set, e-mail alerts disabled")
	}

	return alert.NewDispatcher(cfg, chat, mailer, metrics, logger.Named("alert"))
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight scans
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Graceful shutdown incomplete", zap.Error(err))
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return err
}
