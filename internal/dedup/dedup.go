// Package dedup suppresses repeated business transactions. A business event
// is identified by its user, item (event_id), and transaction_num; a second
// event with the same identity inside the window is dropped before it is
// queued.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SebastienMelki/gameanalytics/internal/batch"
	"github.com/SebastienMelki/gameanalytics/internal/observability"
)

// Config holds the duplicate filter configuration.
type Config struct {
	Enabled  bool          `env:"ENABLED"  envDefault:"false"`
	Window   time.Duration `env:"WINDOW"   envDefault:"10m"`
	Capacity uint          `env:"CAPACITY" envDefault:"100000"`
	FPRate   float64       `env:"FP_RATE"  envDefault:"0.0001"`
}

// DefaultConfig returns a disabled filter with a 10 minute window sized for
// 100k transactions at a 0.01% false positive rate.
func DefaultConfig() Config {
	return Config{
		Window:   10 * time.Minute,
		Capacity: 100_000,
		FPRate:   0.0001,
	}
}

// Filter tracks recently seen business transactions.
type Filter struct {
	window   *window
	period   time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
	rotation *batch.Scheduler
}

// New creates a filter. Zero-valued fields of cfg take their defaults.
// metrics may be nil.
func New(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.FPRate <= 0 || cfg.FPRate >= 1 {
		cfg.FPRate = def.FPRate
	}

	return &Filter{
		window:  newWindow(cfg.Capacity, cfg.FPRate),
		period:  cfg.Window / 2,
		metrics: metrics,
		logger:  logger.With("component", "dedup"),
	}
}

// Start rotates the filter every half window until ctx is cancelled or Stop
// is called.
func (f *Filter) Start(ctx context.Context) {
	if f.rotation != nil {
		return
	}
	f.logger.Info("dedup filter started", "rotate_interval", f.period)
	f.rotation = batch.Start(ctx, f.period, func(context.Context) {
		f.window.rotate()
		f.logger.Debug("dedup filter rotated")
	})
}

// Stop halts rotation and waits for it to finish.
func (f *Filter) Stop() {
	if f.rotation != nil {
		f.rotation.Stop()
	}
}

// Duplicate reports whether a business event with the same identity was seen
// within the window. Events without a transaction identity are never
// duplicates.
func (f *Filter) Duplicate(userID string, fields map[string]any) bool {
	key := Key(userID, fields)
	if key == "" {
		return false
	}

	if !f.window.seen(key) {
		return false
	}

	if f.metrics != nil {
		f.metrics.DedupDropped.Add(context.Background(), 1)
	}
	f.logger.Debug("duplicate business event dropped", "user_id", userID, "key", key)
	return true
}

// Key derives the identity of a business event, or "" when the fields carry
// no event_id or transaction_num.
func Key(userID string, fields map[string]any) string {
	eventID, ok := fields["event_id"]
	if !ok || eventID == nil || eventID == "" {
		return ""
	}
	txn, ok := fields["transaction_num"]
	if !ok || txn == nil || txn == "" {
		return ""
	}
	return fmt.Sprintf("%s\x00%v\x00%v", userID, eventID, txn)
}
