package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Sandbox   SandboxConfig
	Alert     AlertConfig
	Rules     Rules `ignored:"true"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for /analyze.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"10"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds the origins allowed to call the API (the dashboard).
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// SandboxConfig holds behavioral sandbox settings.
type SandboxConfig struct {
	BrowserBin           string        `envconfig:"SANDBOX_BROWSER_BIN"`
	Headless             bool          `envconfig:"SANDBOX_HEADLESS" default:"true"`
	UserAgent            string        `envconfig:"SANDBOX_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"`
	NavigationTimeout    time.Duration `envconfig:"SANDBOX_NAV_TIMEOUT" default:"30s"`
	SettleDelay          time.Duration `envconfig:"SANDBOX_SETTLE_DELAY" default:"3s"`
	InteractionPause     time.Duration `envconfig:"SANDBOX_INTERACTION_PAUSE" default:"1s"`
	ScanTimeout          time.Duration `envconfig:"SANDBOX_SCAN_TIMEOUT" default:"90s"`
	MaxConcurrent        int64         `envconfig:"SANDBOX_MAX_CONCURRENT" default:"4"`
	AlertJoinTimeout     time.Duration `envconfig:"SANDBOX_ALERT_JOIN_TIMEOUT" default:"5s"`
	ScreenshotDir        string        `envconfig:"SANDBOX_SCREENSHOT_DIR" default:"sandbox/screenshots"`
	LogDir               string        `envconfig:"SANDBOX_LOG_DIR" default:"sandbox/logs"`
	RulesFile            string        `envconfig:"SANDBOX_RULES_FILE"`
	BlockedResourceKinds []string      `envconfig:"SANDBOX_BLOCKED_RESOURCES" default:"image,font,media"`
}

// AlertConfig holds chat webhook and SMTP settings for alert dispatch.
type AlertConfig struct {
	SlackWebhook string        `envconfig:"SLACK_WEBHOOK"`
	EmailUser    string        `envconfig:"EMAIL_USER"`
	EmailPass    string        `envconfig:"EMAIL_PASS"`
	EmailTo      string        `envconfig:"EMAIL_TO"`
	SMTPServer   string        `envconfig:"SMTP_SERVER" default:"smtp.gmail.com"`
	SMTPPort     int           `envconfig:"SMTP_PORT" default:"587"`
	Timeout      time.Duration `envconfig:"ALERT_TIMEOUT" default:"10s"`
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are not an error.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables and, when
// SANDBOX_RULES_FILE is set, the deny-list rules file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Rules = DefaultRules()
	if cfg.Sandbox.RulesFile != "" {
		rules, err := LoadRules(cfg.Sandbox.RulesFile)
		if err != nil {
			return nil, err
		}
		cfg.Rules = cfg.Rules.Merge(rules)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings the sandbox cannot run with.
func (c *Config) Validate() error {
	if c.Sandbox.MaxConcurrent < 1 {
		return fmt.Errorf("invalid config: SANDBOX_MAX_CONCURRENT must be >= 1, got %d", c.Sandbox.MaxConcurrent)
	}
	if c.Sandbox.NavigationTimeout <= 0 {
		return fmt.Errorf("invalid config: SANDBOX_NAV_TIMEOUT must be positive")
	}
	if c.Sandbox.ScanTimeout < c.Sandbox.NavigationTimeout {
		return fmt.Errorf("invalid config: SANDBOX_SCAN_TIMEOUT (%s) shorter than SANDBOX_NAV_TIMEOUT (%s)",
			c.Sandbox.ScanTimeout, c.Sandbox.NavigationTimeout)
	}
	return nil
}

// EmailConfigured reports whether SMTP credentials and a recipient are set.
func (a AlertConfig) EmailConfigured() bool {
	return a.EmailUser != "" && a.EmailPass != "" && a.EmailTo != ""
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Sandbox: SandboxConfig{
			Headless:             true,
			UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			NavigationTimeout:    30 * time.Second,
			SettleDelay:          3 * time.Second,
			InteractionPause:     time.Second,
			ScanTimeout:          90 * time.Second,
			MaxConcurrent:        4,
			AlertJoinTimeout:     5 * time.Second,
			ScreenshotDir:        "sandbox/screenshots",
			LogDir:               "sandbox/logs",
			BlockedResourceKinds: []string{"image", "font", "media"},
		},
		Alert: AlertConfig{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   587,
			Timeout:    10 * time.Second,
		},
		Rules: DefaultRules(),
	}
}
