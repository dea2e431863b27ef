package gameanalytics

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/SebastienMelki/gameanalytics/internal/dedup"
	"github.com/SebastienMelki/gameanalytics/internal/transport"
)

// Default configuration values.
const (
	DefaultFlushInterval = 10 * time.Second
	DefaultTimeout       = transport.DefaultTimeout
)

// Config holds the SDK configuration.
type Config struct {
	// GameKey and SecretKey are the game's API credentials. Both are
	// required unless Sandbox is set.
	GameKey   string `env:"GAME_KEY"`
	SecretKey string `env:"SECRET_KEY"`

	// Sandbox sends to the GameAnalytics sandbox with its public test
	// credentials, ignoring GameKey and SecretKey.
	Sandbox bool `env:"SANDBOX" envDefault:"false"`

	// Build is the game build attached to every event (optional).
	Build string `env:"BUILD"`

	// Host overrides the API host (default: production or sandbox host).
	Host string `env:"HOST"`

	// FlushInterval is the period of each session's flush (default: 10s).
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"10s"`

	// Timeout bounds a single API request (default: 10s).
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	Dedup dedup.Config `envPrefix:"DEDUP_"`
}

// RateLimitConfig paces outbound API requests.
type RateLimitConfig struct {
	Enabled           bool    `env:"ENABLED" envDefault:"false"`
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"50"`
	BurstSize         int     `env:"BURST_SIZE" envDefault:"100"`
}

// ConfigFromEnv reads a Config from GA_-prefixed environment variables,
// e.g. GA_GAME_KEY, GA_SANDBOX, GA_DEDUP_ENABLED.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "GA_"}); err != nil {
		return Config{}, fmt.Errorf("gameanalytics: failed to parse config: %w", err)
	}
	return cfg, nil
}

// validate checks that required fields are set and values are valid.
func (c *Config) validate() error {
	if !c.Sandbox {
		if c.GameKey == "" {
			return errors.New("gameanalytics: GameKey is required")
		}
		if c.SecretKey == "" {
			return errors.New("gameanalytics: SecretKey is required")
		}
	}

	if c.Host != "" {
		u, err := url.Parse(c.Host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("gameanalytics: Host must be an absolute URL")
		}
	}

	if len(c.Build) > 32 {
		return errors.New("gameanalytics: Build must be at most 32 characters")
	}

	if c.FlushInterval < 0 {
		return errors.New("gameanalytics: FlushInterval must be non-negative")
	}

	if c.Timeout < 0 {
		return errors.New("gameanalytics: Timeout must be non-negative")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return errors.New("gameanalytics: RateLimit.RequestsPerSecond must be positive")
	}

	return nil
}

// withDefaults returns a copy of the config with default values applied.
func (c Config) withDefaults() Config {
	cfg := c

	if cfg.Sandbox {
		cfg.GameKey = transport.SandboxGameKey
		cfg.SecretKey = transport.SandboxSecretKey
		if cfg.Host == "" {
			cfg.Host = transport.SandboxHost
		}
	}
	if cfg.Host == "" {
		cfg.Host = transport.ProductionHost
	}
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")

	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return cfg
}

func (c Config) transportConfig() transport.Config {
	tc := transport.Config{
		Host:      c.Host,
		GameKey:   c.GameKey,
		SecretKey: c.SecretKey,
		Timeout:   c.Timeout,
	}
	if c.RateLimit.Enabled {
		tc.RequestsPerSecond = c.RateLimit.RequestsPerSecond
		tc.BurstSize = c.RateLimit.BurstSize
	}
	return tc
}
