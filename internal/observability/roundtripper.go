package observability

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// RoundTripper wraps next so every API request records its duration, count,
// and failures. Requests are tagged with the endpoint (last path segment)
// and status. A nil next uses http.DefaultTransport.
func RoundTripper(metrics *Metrics, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &instrumentedTransport{metrics: metrics, next: next}
}

type instrumentedTransport struct {
	metrics *Metrics
	next    http.RoundTripper
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := float64(time.Since(start).Milliseconds())
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	attrs := otelmetric.WithAttributes(
		attribute.String("endpoint", endpointOf(req)),
		attribute.String("status", status),
	)

	ctx := req.Context()
	t.metrics.DispatchDuration.Record(ctx, duration, attrs)
	t.metrics.DispatchTotal.Add(ctx, 1, attrs)

	if err != nil || resp.StatusCode >= 400 {
		t.metrics.DispatchErrors.Add(ctx, 1, attrs)
	}

	return resp, err
}

func endpointOf(req *http.Request) string {
	path := req.URL.Path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
