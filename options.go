package gameanalytics

import (
	"log/slog"
	"time"

	"github.com/SebastienMelki/gameanalytics/internal/observability"
	"github.com/SebastienMelki/gameanalytics/internal/transport"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDispatcher replaces the HTTP dispatcher, e.g. with a test double.
func WithDispatcher(d transport.Dispatcher) Option {
	return func(c *Client) {
		c.dispatcher = d
	}
}

// WithMetrics records SDK metrics on m (default: discarded).
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithMirror adds a receiver for every delivered batch. Ignored when
// WithDispatcher is used.
func WithMirror(m transport.Mirror) Option {
	return func(c *Client) {
		if m != nil {
			c.mirrors = append(c.mirrors, m)
		}
	}
}

// WithErrorCallback registers an ErrorCallback at construction.
func WithErrorCallback(cb ErrorCallback) Option {
	return func(c *Client) {
		c.callbacks.add(cb)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.clock = now
		}
	}
}
