package gameanalytics

import (
	"strings"
	"testing"
	"time"

	"github.com/SebastienMelki/gameanalytics/internal/transport"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid production",
			cfg:  Config{GameKey: "k", SecretKey: "s"},
		},
		{
			name: "sandbox without keys",
			cfg:  Config{Sandbox: true},
		},
		{
			name:    "missing game key",
			cfg:     Config{SecretKey: "s"},
			wantErr: "GameKey is required",
		},
		{
			name:    "missing secret key",
			cfg:     Config{GameKey: "k"},
			wantErr: "SecretKey is required",
		},
		{
			name:    "relative host",
			cfg:     Config{GameKey: "k", SecretKey: "s", Host: "api.example.com"},
			wantErr: "Host must be an absolute URL",
		},
		{
			name:    "build too long",
			cfg:     Config{GameKey: "k", SecretKey: "s", Build: strings.Repeat("x", 33)},
			wantErr: "Build must be at most 32 characters",
		},
		{
			name:    "negative flush interval",
			cfg:     Config{GameKey: "k", SecretKey: "s", FlushInterval: -time.Second},
			wantErr: "FlushInterval must be non-negative",
		},
		{
			name:    "negative timeout",
			cfg:     Config{GameKey: "k", SecretKey: "s", Timeout: -time.Second},
			wantErr: "Timeout must be non-negative",
		},
		{
			name: "rate limit without rate",
			cfg: Config{GameKey: "k", SecretKey: "s",
				RateLimit: RateLimitConfig{Enabled: true}},
			wantErr: "RequestsPerSecond must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{GameKey: "k", SecretKey: "s"}.withDefaults()

	if cfg.Host != transport.ProductionHost {
		t.Errorf("Host = %q, want %q", cfg.Host, transport.ProductionHost)
	}
	if cfg.FlushInterval != DefaultFlushInterval {
		t.Errorf("FlushInterval = %v, want %v", cfg.FlushInterval, DefaultFlushInterval)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

func TestConfigWithDefaults_Sandbox(t *testing.T) {
	cfg := Config{Sandbox: true, GameKey: "ignored", SecretKey: "ignored"}.withDefaults()

	if cfg.GameKey != transport.SandboxGameKey || cfg.SecretKey != transport.SandboxSecretKey {
		t.Errorf("sandbox credentials not applied: %q / %q", cfg.GameKey, cfg.SecretKey)
	}
	if cfg.Host != transport.SandboxHost {
		t.Errorf("Host = %q, want %q", cfg.Host, transport.SandboxHost)
	}
}

func TestConfigWithDefaults_TrimsHost(t *testing.T) {
	cfg := Config{GameKey: "k", SecretKey: "s", Host: "http://localhost:8080/"}.withDefaults()
	if cfg.Host != "http://localhost:8080" {
		t.Errorf("Host = %q, want trailing slash trimmed", cfg.Host)
	}
}

func TestConfigTransportConfig(t *testing.T) {
	cfg := Config{GameKey: "k", SecretKey: "s"}.withDefaults()
	if tc := cfg.transportConfig(); tc.RequestsPerSecond != 0 {
		t.Errorf("RequestsPerSecond = %v with rate limiting disabled, want 0", tc.RequestsPerSecond)
	}

	cfg.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5, BurstSize: 10}
	tc := cfg.transportConfig()
	if tc.RequestsPerSecond != 5 || tc.BurstSize != 10 {
		t.Errorf("transportConfig() rate = %v/%d, want 5/10", tc.RequestsPerSecond, tc.BurstSize)
	}
	if tc.GameKey != "k" || tc.SecretKey != "s" || tc.Host != transport.ProductionHost {
		t.Errorf("transportConfig() = %+v", tc)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GA_GAME_KEY", "env-key")
	t.Setenv("GA_SECRET_KEY", "env-secret")
	t.Setenv("GA_BUILD", "2.0.1")
	t.Setenv("GA_FLUSH_INTERVAL", "3s")
	t.Setenv("GA_RATE_LIMIT_ENABLED", "true")
	t.Setenv("GA_DEDUP_ENABLED", "true")
	t.Setenv("GA_DEDUP_WINDOW", "1m")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}

	if cfg.GameKey != "env-key" || cfg.SecretKey != "env-secret" || cfg.Build != "2.0.1" {
		t.Errorf("credentials = %q/%q build %q", cfg.GameKey, cfg.SecretKey, cfg.Build)
	}
	if cfg.FlushInterval != 3*time.Second {
		t.Errorf("FlushInterval = %v, want 3s", cfg.FlushInterval)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s default", cfg.Timeout)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerSecond != 50 || cfg.RateLimit.BurstSize != 100 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if !cfg.Dedup.Enabled || cfg.Dedup.Window != time.Minute {
		t.Errorf("Dedup = %+v", cfg.Dedup)
	}
}

func TestConfigFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("GA_FLUSH_INTERVAL", "soon")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("ConfigFromEnv() error = nil for an invalid duration")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() error = nil without credentials")
	}
}
