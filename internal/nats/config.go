// Package nats mirrors delivered GameAnalytics batches to NATS JetStream so
// other services can consume the same telemetry.
package nats

import (
	"time"
)

// Config holds NATS connection and mirror stream configuration.
type Config struct {
	// Enabled turns the mirror on.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// URL is the NATS server URL (e.g., "nats://localhost:4222")
	URL string `env:"URL" envDefault:"nats://localhost:4222"`

	// Name is the client connection name for monitoring
	Name string `env:"CLIENT_NAME" envDefault:"gameanalytics-sdk"`

	MaxReconnects int           `env:"MAX_RECONNECTS" envDefault:"60"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT" envDefault:"2s"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"5s"`

	// SubjectPrefix is the first token of every mirrored subject.
	SubjectPrefix string `env:"SUBJECT_PREFIX" envDefault:"gameanalytics"`

	Stream StreamConfig `envPrefix:"STREAM_"`
}

// StreamConfig holds the JetStream stream that captures mirrored batches.
type StreamConfig struct {
	Name     string        `env:"NAME" envDefault:"GAMEANALYTICS_BATCHES"`
	MaxAge   time.Duration `env:"MAX_AGE" envDefault:"24h"`
	MaxBytes int64         `env:"MAX_BYTES" envDefault:"268435456"` // 256MB
	Replicas int           `env:"REPLICAS" envDefault:"1"`
	Storage  string        `env:"STORAGE" envDefault:"file"`
}
