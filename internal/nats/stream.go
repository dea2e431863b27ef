package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureStream creates the mirror stream, or updates it when it already
// exists. The stream captures every subject under prefix.
func EnsureStream(ctx context.Context, js jetstream.JetStream, prefix string, cfg StreamConfig, logger *slog.Logger) (jetstream.Stream, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "stream-manager")

	storage := jetstream.FileStorage
	if strings.EqualFold(cfg.Storage, "memory") {
		storage = jetstream.MemoryStorage
	}

	streamCfg := jetstream.StreamConfig{
		Name:      cfg.Name,
		Subjects:  []string{prefix + ".>"},
		Storage:   storage,
		MaxAge:    cfg.MaxAge,
		MaxBytes:  cfg.MaxBytes,
		Replicas:  cfg.Replicas,
		Retention: jetstream.LimitsPolicy,
		Discard:   jetstream.DiscardOld,
	}

	if _, err := js.Stream(ctx, cfg.Name); err == nil {
		stream, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to update stream: %w", err)
		}
		logger.Info("stream updated", "name", cfg.Name)
		return stream, nil
	}

	stream, err := js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}
	logger.Info("stream created", "name", cfg.Name, "subjects", streamCfg.Subjects)
	return stream, nil
}
