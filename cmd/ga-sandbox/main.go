// Command ga-sandbox plays a scripted player session against the
// GameAnalytics API and serves the SDK metrics until interrupted.
//
// With GA_SANDBOX=true it needs no credentials. Set GA_NATS_ENABLED=true to
// mirror every delivered batch to NATS JetStream.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/SebastienMelki/gameanalytics"
	"github.com/SebastienMelki/gameanalytics/internal/nats"
	"github.com/SebastienMelki/gameanalytics/internal/observability"
	"github.com/SebastienMelki/gameanalytics/internal/transport"
)

// Config holds the command configuration. SDK settings are read separately
// by gameanalytics.ConfigFromEnv.
type Config struct {
	// LogLevel is the log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFormat is the log format (json, text)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// MetricsAddr serves /metrics and /healthz; empty disables both.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	// UserID is the player the scripted session is reported for.
	UserID string `env:"USER_ID" envDefault:"sandbox-player"`

	// NATS mirror configuration
	NATS nats.Config `envPrefix:"GA_NATS_"`
}

const sandboxUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1"

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}

	sdkCfg, err := gameanalytics.ConfigFromEnv()
	if err != nil {
		slog.Error("failed to parse SDK config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting gameanalytics sandbox",
		"log_level", cfg.LogLevel,
		"sandbox", sdkCfg.Sandbox,
		"metrics_addr", cfg.MetricsAddr,
		"nats_enabled", cfg.NATS.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	obs, err := observability.New("gameanalytics-sandbox")
	if err != nil {
		logger.Error("failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			logger.Error("observability shutdown error", "error", err)
		}
	}()

	opts := []gameanalytics.Option{
		gameanalytics.WithLogger(logger),
		gameanalytics.WithMetrics(obs.Metrics()),
		gameanalytics.WithErrorCallback(gameanalytics.ErrorCallbackFunc(func(e *gameanalytics.SDKError) {
			logger.Warn("sdk error", "code", e.Code, "severity", e.Severity.String(), "user_id", e.UserID)
		})),
	}

	var natsClient *nats.Client
	if cfg.NATS.Enabled {
		natsClient, err = nats.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		if _, err := nats.EnsureStream(ctx, natsClient.JetStream(), cfg.NATS.SubjectPrefix, cfg.NATS.Stream, logger); err != nil {
			logger.Error("failed to ensure stream", "error", err)
			os.Exit(1)
		}

		publisher := nats.NewPublisher(natsClient.JetStream(), cfg.NATS.SubjectPrefix, mirrorGameKey(sdkCfg),
			cfg.NATS.Stream.Name, obs.Metrics(), logger)
		opts = append(opts, gameanalytics.WithMirror(publisher))
	}

	client, err := gameanalytics.New(sdkCfg, opts...)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	var server *http.Server
	errCh := make(chan error, 1)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", obs.MetricsHandler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if natsClient != nil {
				if err := natsClient.HealthCheck(r.Context()); err != nil {
					http.Error(w, err.Error(), http.StatusServiceUnavailable)
					return
				}
			}
			w.WriteHeader(http.StatusOK)
		})
		server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	play(ctx, client, cfg.UserID, logger)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("metrics server error", "error", err)
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := client.Close(shutdownCtx); err != nil {
		logger.Error("client close error", "error", err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	logger.Info("sandbox stopped")
}

// mirrorGameKey is the game key the client will send with, used as the
// mirror subject token. Sandbox mode replaces the configured key.
func mirrorGameKey(cfg gameanalytics.Config) string {
	if cfg.Sandbox {
		return transport.SandboxGameKey
	}
	return cfg.GameKey
}

// play runs one scripted session covering every event category.
func play(ctx context.Context, client *gameanalytics.Client, userID string, logger *slog.Logger) {
	info, err := client.StartSession(ctx, userID, gameanalytics.ContextInput{
		UserAgent:  sandboxUserAgent,
		Device:     "iPhone15,2",
		SessionNum: 1,
	})
	if err != nil {
		logger.Error("failed to start session", "error", err)
		return
	}
	logger.Info("session started", "session_id", info.SessionID(), "offset", info.Offset)

	client.Track(gameanalytics.CategoryProgression, userID, map[string]any{
		"event_id": "Start:World01:Stage01",
	})
	client.Track(gameanalytics.CategoryResource, userID, map[string]any{
		"event_id": "Source:Gems:Reward:LevelUp",
		"amount":   25,
	})
	client.Track(gameanalytics.CategoryDesign, userID, map[string]any{
		"event_id": "Tutorial:Step01:Complete",
		"value":    1,
	})
	client.Track(gameanalytics.CategoryBusiness, userID, map[string]any{
		"event_id":        "IAP:gold_pack",
		"amount":          99,
		"currency":        "USD",
		"transaction_num": 1,
	})
	client.Track(gameanalytics.CategoryError, userID, map[string]any{
		"severity": "warning",
		"message":  "sandbox: texture cache miss",
	})
	client.Track(gameanalytics.CategoryProgression, userID, map[string]any{
		"event_id":    "Complete:World01:Stage01",
		"attempt_num": 1,
		"score":       1200,
	})

	client.EndSession(ctx, userID)
	logger.Info("session ended", "session_id", info.SessionID())
}

// setupLogger creates a logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
