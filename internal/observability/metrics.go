package observability

import (
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the SDK metric instruments. Instruments are created once and
// shared by the client, transport, dedup filter, and mirror publisher.
type Metrics struct {
	// Event pipeline
	EventsTracked   otelmetric.Int64Counter
	EventsRejected  otelmetric.Int64Counter
	EventsDropped   otelmetric.Int64Counter
	DedupDropped    otelmetric.Int64Counter
	SessionsActive  otelmetric.Int64UpDownCounter
	SessionsStarted otelmetric.Int64Counter

	// Flushing
	BatchesFlushed otelmetric.Int64Counter
	BatchSize      otelmetric.Int64Histogram

	// HTTP dispatch
	DispatchDuration otelmetric.Float64Histogram
	DispatchTotal    otelmetric.Int64Counter
	DispatchErrors   otelmetric.Int64Counter

	// Mirror
	MirrorPublished otelmetric.Int64Counter
	MirrorFailures  otelmetric.Int64Counter
}

// NewMetrics creates all metric instruments from the given Meter.
func NewMetrics(meter otelmetric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	m.EventsTracked, err = meter.Int64Counter(
		"gameanalytics.events.tracked",
		otelmetric.WithDescription("Events accepted into a session queue"),
	)
	if err != nil {
		return nil, err
	}

	m.EventsRejected, err = meter.Int64Counter(
		"gameanalytics.events.rejected",
		otelmetric.WithDescription("Events dropped by schema validation or rejected by the API"),
	)
	if err != nil {
		return nil, err
	}

	m.EventsDropped, err = meter.Int64Counter(
		"gameanalytics.events.dropped",
		otelmetric.WithDescription("Events dropped because the user had no live session"),
	)
	if err != nil {
		return nil, err
	}

	m.DedupDropped, err = meter.Int64Counter(
		"gameanalytics.dedup.dropped",
		otelmetric.WithDescription("Duplicate business events dropped"),
	)
	if err != nil {
		return nil, err
	}

	m.SessionsActive, err = meter.Int64UpDownCounter(
		"gameanalytics.sessions.active",
		otelmetric.WithDescription("Live sessions in the store"),
	)
	if err != nil {
		return nil, err
	}

	m.SessionsStarted, err = meter.Int64Counter(
		"gameanalytics.sessions.started",
		otelmetric.WithDescription("Sessions started"),
	)
	if err != nil {
		return nil, err
	}

	m.BatchesFlushed, err = meter.Int64Counter(
		"gameanalytics.batches.flushed",
		otelmetric.WithDescription("Event batches handed to the dispatcher"),
	)
	if err != nil {
		return nil, err
	}

	m.BatchSize, err = meter.Int64Histogram(
		"gameanalytics.batch.size",
		otelmetric.WithDescription("Events per flushed batch"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram(
		"gameanalytics.dispatch.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("API request duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchTotal, err = meter.Int64Counter(
		"gameanalytics.dispatch.total",
		otelmetric.WithDescription("API requests sent"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchErrors, err = meter.Int64Counter(
		"gameanalytics.dispatch.errors",
		otelmetric.WithDescription("API requests that failed or returned a non-2xx status"),
	)
	if err != nil {
		return nil, err
	}

	m.MirrorPublished, err = meter.Int64Counter(
		"gameanalytics.mirror.published",
		otelmetric.WithDescription("Batches mirrored to NATS"),
	)
	if err != nil {
		return nil, err
	}

	m.MirrorFailures, err = meter.Int64Counter(
		"gameanalytics.mirror.failures",
		otelmetric.WithDescription("Batches that failed to mirror to NATS"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// Noop returns instruments that discard every measurement.
func Noop() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	if err != nil {
		// the noop meter never fails
		panic(err)
	}
	return m
}
