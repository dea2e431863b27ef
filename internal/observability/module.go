// Package observability provides OpenTelemetry metrics for the GameAnalytics
// SDK with a Prometheus exporter for hosts that scrape them.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Module owns the OTel MeterProvider backing the SDK instruments.
type Module struct {
	provider *sdkmetric.MeterProvider
	meter    otelmetric.Meter
	metrics  *Metrics
}

// New creates a Prometheus-backed MeterProvider, registers it as the global
// OTel MeterProvider, and builds the SDK instruments under scope name.
func New(name string) (*Module, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	meter := provider.Meter(name)

	metrics, err := NewMetrics(meter)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	return &Module{
		provider: provider,
		meter:    meter,
		metrics:  metrics,
	}, nil
}

// Shutdown flushes and stops the MeterProvider.
func (m *Module) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// MetricsHandler serves the Prometheus exposition format. Mount at "/metrics".
func (m *Module) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Meter returns the OTel Meter.
func (m *Module) Meter() otelmetric.Meter {
	return m.meter
}

// Metrics returns the SDK instruments.
func (m *Module) Metrics() *Metrics {
	return m.metrics
}
