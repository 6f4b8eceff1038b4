package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabasePath string `env:"DATABASE_PATH,default=data/notify-agent.db"`
	EventSocket  string `env:"EVENT_SOCKET,default=/run/notify-agent/events.sock"`
	APIPort      int    `env:"API_PORT,default=8575"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`

	// OwnPackage identifies the agent's own notifications for the filter.
	OwnPackage string `env:"OWN_PACKAGE,default=com.notifylab.agent"`

	SweepIntervalMinutes int    `env:"SWEEP_INTERVAL_MINUTES,default=15"`
	ProbeAddr            string `env:"PROBE_ADDR,default=1.1.1.1:443"`
	ProbeTimeoutSeconds  int    `env:"PROBE_TIMEOUT_SECONDS,default=3"`

	// Seed values applied on first run only; the settings API owns them after.
	SeedEndpointURL string `env:"ENDPOINT_URL"`
	SeedAPIKey      string `env:"API_KEY"`
	SeedPackages    string `env:"FILTER_PACKAGES"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort)
	}
	if c.SweepIntervalMinutes < 1 {
		return fmt.Errorf("SWEEP_INTERVAL_MINUTES must be >= 1, got %d", c.SweepIntervalMinutes)
	}
	if c.ProbeTimeoutSeconds < 1 {
		return fmt.Errorf("PROBE_TIMEOUT_SECONDS must be >= 1, got %d", c.ProbeTimeoutSeconds)
	}
	return nil
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}
