package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/SebastienMelki/gameanalytics/internal/observability"
)

// streamPublisher is the subset of jetstream.JetStream the mirror needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher mirrors delivered batches to JetStream. It satisfies
// transport.Mirror.
type Publisher struct {
	js      streamPublisher
	prefix  string
	gameKey string
	stream  string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a mirror publisher. stream, when set, is required to
// be the stream that stores each message. metrics may be nil.
func NewPublisher(js streamPublisher, prefix, gameKey, stream string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		js:      js,
		prefix:  prefix,
		gameKey: gameKey,
		stream:  stream,
		metrics: metrics,
		logger:  logger.With("component", "mirror"),
	}
}

// MirrorBatch publishes a delivered batch payload.
func (p *Publisher) MirrorBatch(ctx context.Context, endpoint string, payload []byte) error {
	subject := p.deriveSubject(endpoint)

	var opts []jetstream.PublishOpt
	if p.stream != "" {
		opts = append(opts, jetstream.WithExpectStream(p.stream))
	}

	attrs := otelmetric.WithAttributes(attribute.String("endpoint", endpoint))

	ack, err := p.js.Publish(ctx, subject, payload, opts...)
	if err != nil {
		if p.metrics != nil {
			p.metrics.MirrorFailures.Add(ctx, 1, attrs)
		}
		return fmt.Errorf("%w to %s: %w", ErrMirrorPublish, subject, err)
	}

	if p.metrics != nil {
		p.metrics.MirrorPublished.Add(ctx, 1, attrs)
	}
	p.logger.Debug("batch mirrored",
		"subject", subject,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)
	return nil
}

// deriveSubject builds the subject of a batch.
// Format: {prefix}.{game_key}.{endpoint}.
func (p *Publisher) deriveSubject(endpoint string) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, sanitizeToken(p.gameKey), sanitizeToken(endpoint))
}

// sanitizeToken makes s safe to use as a single subject token.
func sanitizeToken(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "_", ".", "_", "*", "_", ">", "_").Replace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
