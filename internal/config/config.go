package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/logutil"
	"github.com/caarlos0/env/v11"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Application
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// Orchestrator API
	OrchestratorURL     string        `env:"ORCHESTRATOR_URL"     envDefault:"http://localhost:8080"`
	OrchestratorAPIKey  string        `env:"ORCHESTRATOR_API_KEY"` //nolint:gosec
	OrchestratorTimeout time.Duration `env:"ORCHESTRATOR_TIMEOUT" envDefault:"15s"`
	ReadinessTimeout    time.Duration `env:"READINESS_TIMEOUT"    envDefault:"3s"`
	OverviewPollPeriod  time.Duration `env:"OVERVIEW_POLL_PERIOD" envDefault:"30s"`

	// HTTP Server
	HTTPServerHost         string        `env:"HTTP_SERVER_HOST"          envDefault:"0.0.0.0"`
	HTTPServerPort         int           `env:"HTTP_SERVER_PORT"          envDefault:"3000"`
	HTTPEnableCORS         bool          `env:"HTTP_ENABLE_CORS"          envDefault:"false"`
	HTTPAllowOrigins       []string      `env:"HTTP_ALLOW_ORIGINS"        envSeparator:","`
	HTTPBodyLimit          string        `env:"HTTP_BODY_LIMIT"           envDefault:"1M"`
	HTTPServerReadTimeout  time.Duration `env:"HTTP_SERVER_READ_TIMEOUT"  envDefault:"30s"`
	HTTPServerWriteTimeout time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPEnableAPIProxy     bool          `env:"HTTP_ENABLE_API_PROXY"     envDefault:"true"`
	HTTPProxyRateLimit     float64       `env:"HTTP_PROXY_RATE_LIMIT"     envDefault:"0"`
	HTTPProxyBurst         int           `env:"HTTP_PROXY_BURST"          envDefault:"20"`

	// Metric Server
	MetricServerEnabled      bool          `env:"METRIC_SERVER_ENABLED"       envDefault:"true"`
	MetricServerHost         string        `env:"METRIC_SERVER_HOST"          envDefault:"0.0.0.0"`
	MetricServerPort         int           `env:"METRIC_SERVER_PORT"          envDefault:"9090"`
	MetricServerReadTimeout  time.Duration `env:"METRIC_SERVER_READ_TIMEOUT"  envDefault:"10s"`
	MetricServerWriteTimeout time.Duration `env:"METRIC_SERVER_WRITE_TIMEOUT" envDefault:"10s"`

	// Graceful Shutdown
	GracefulShutdownPeriod time.Duration `env:"GRACEFUL_SHUTDOWN_PERIOD" envDefault:"10s"`
}

func New() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := logutil.ValidLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidConfig, err)
	}

	origin, err := url.Parse(c.OrchestratorURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return fmt.Errorf("%w: ORCHESTRATOR_URL must be an absolute URL, got %q", ErrInvalidConfig, c.OrchestratorURL)
	}

	if err := validPort("HTTP_SERVER_PORT", c.HTTPServerPort); err != nil {
		return err
	}

	if c.MetricServerEnabled {
		if err := validPort("METRIC_SERVER_PORT", c.MetricServerPort); err != nil {
			return err
		}

		if c.MetricServerPort == c.HTTPServerPort && c.MetricServerHost == c.HTTPServerHost {
			return fmt.Errorf("%w: METRIC_SERVER_PORT must differ from HTTP_SERVER_PORT", ErrInvalidConfig)
		}
	}

	if c.OrchestratorTimeout < 0 {
		return fmt.Errorf("%w: ORCHESTRATOR_TIMEOUT must not be negative, got %s", ErrInvalidConfig, c.OrchestratorTimeout)
	}

	if c.OverviewPollPeriod < 0 {
		return fmt.Errorf("%w: OVERVIEW_POLL_PERIOD must not be negative, got %s", ErrInvalidConfig, c.OverviewPollPeriod)
	}

	if c.HTTPProxyRateLimit < 0 {
		return fmt.Errorf("%w: HTTP_PROXY_RATE_LIMIT must not be negative, got %g", ErrInvalidConfig, c.HTTPProxyRateLimit)
	}

	return nil
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s must be between 1 and 65535, got %d", ErrInvalidConfig, name, port)
	}

	return nil
}
