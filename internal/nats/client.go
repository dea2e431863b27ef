package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// healthTimeout bounds the JetStream round trip of HealthCheck.
const healthTimeout = 2 * time.Second

// Client owns the mirror's NATS connection.
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// Connect dials cfg.URL and opens a JetStream context for mirroring.
func Connect(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats-mirror")

	conn, err := nats.Connect(cfg.URL, connectOptions(cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open JetStream: %w", err)
	}

	logger.Info("mirror connected", "url", conn.ConnectedUrl(), "subject_prefix", cfg.SubjectPrefix)

	return &Client{conn: conn, js: js, logger: logger}, nil
}

func connectOptions(cfg Config, logger *slog.Logger) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("mirror disconnected; batches are not mirrored until reconnect", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("mirror reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("async NATS error", "subject", subject, "error", err)
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Debug("mirror connection closed")
		}),
	}
}

// JetStream returns the JetStream context publishers write to.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// HealthCheck reports whether the connection is up and JetStream answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	if status := c.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("%w: status %s", ErrNotConnected, status)
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if _, err := c.js.AccountInfo(ctx); err != nil {
		return fmt.Errorf("%w: account info: %w", ErrNotConnected, err)
	}
	return nil
}

// Close flushes in-flight publishes before closing the connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("mirror drain failed, closing", "error", err)
		c.conn.Close()
	}
}
