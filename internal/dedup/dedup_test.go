package dedup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/SebastienMelki/gameanalytics/internal/observability"
)

// mockMetricCounter counts Add calls.
type mockMetricCounter struct {
	metric.Int64Counter
	count atomic.Int64
}

func (m *mockMetricCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	m.count.Add(incr)
}

func createTestMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create test metrics: %v", err)
	}
	return m
}

func purchase(item string, txn any) map[string]any {
	return map[string]any{
		"event_id":        item,
		"amount":          99,
		"currency":        "USD",
		"transaction_num": txn,
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		empty  bool
	}{
		{"complete", purchase("Weapon:Sword", 1), false},
		{"no transaction_num", map[string]any{"event_id": "Weapon:Sword"}, true},
		{"no event_id", map[string]any{"transaction_num": 1}, true},
		{"empty event_id", purchase("", 1), true},
		{"nil transaction_num", purchase("Weapon:Sword", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key("u1", tt.fields)
			if (got == "") != tt.empty {
				t.Errorf("Key() = %q, want empty=%v", got, tt.empty)
			}
		})
	}

	if Key("u1", purchase("a", 1)) == Key("u2", purchase("a", 1)) {
		t.Error("Key() does not distinguish users")
	}
}

func TestFilter_Duplicate(t *testing.T) {
	f := New(DefaultConfig(), nil, nil)

	if f.Duplicate("u1", purchase("Weapon:Sword", 1)) {
		t.Error("first purchase reported as duplicate")
	}
	if !f.Duplicate("u1", purchase("Weapon:Sword", 1)) {
		t.Error("repeated purchase not reported as duplicate")
	}
	if f.Duplicate("u1", purchase("Weapon:Sword", 2)) {
		t.Error("new transaction_num reported as duplicate")
	}
	if f.Duplicate("u2", purchase("Weapon:Sword", 1)) {
		t.Error("another user's purchase reported as duplicate")
	}
}

func TestFilter_NoIdentityNeverDuplicate(t *testing.T) {
	f := New(DefaultConfig(), nil, nil)
	fields := map[string]any{"event_id": "Weapon:Sword"}

	if f.Duplicate("u1", fields) || f.Duplicate("u1", fields) {
		t.Error("event without transaction_num reported as duplicate")
	}
}

func TestFilter_MetricsIncremented(t *testing.T) {
	metrics := createTestMetrics(t)
	counter := &mockMetricCounter{}
	metrics.DedupDropped = counter

	f := New(DefaultConfig(), metrics, nil)
	f.Duplicate("u1", purchase("a", 1))
	if counter.count.Load() != 0 {
		t.Errorf("counter = %d after first event, want 0", counter.count.Load())
	}

	f.Duplicate("u1", purchase("a", 1))
	f.Duplicate("u1", purchase("a", 1))
	if counter.count.Load() != 2 {
		t.Errorf("counter = %d after two duplicates, want 2", counter.count.Load())
	}
}

func TestFilter_RotationExpiresKeys(t *testing.T) {
	f := New(Config{Window: 40 * time.Millisecond}, nil, nil)
	f.Duplicate("u1", purchase("a", 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.Start(ctx)

	time.Sleep(120 * time.Millisecond)
	f.Stop()

	if f.Duplicate("u1", purchase("a", 1)) {
		t.Error("key still present after several rotations")
	}
}

func TestFilter_StopWithoutStart(t *testing.T) {
	New(DefaultConfig(), nil, nil).Stop()
}

func TestNew_Defaults(t *testing.T) {
	f := New(Config{}, nil, nil)
	if f.period != DefaultConfig().Window/2 {
		t.Errorf("period = %v, want half the default window", f.period)
	}
}

func TestWindow_RotateKeepsOneGeneration(t *testing.T) {
	w := newWindow(10000, 0.0001)
	w.seen("old")

	w.rotate()
	if !w.seen("old") {
		t.Error("key lost after one rotation")
	}

	w.seen("new")
	w.rotate()
	w.rotate()
	if w.seen("new") {
		t.Error("key survived two rotations after last sighting")
	}
}

func TestWindow_ConcurrentAccess(t *testing.T) {
	w := newWindow(100000, 0.0001)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.seen(fmt.Sprintf("%d-%d", id, j))
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			w.rotate()
			time.Sleep(time.Millisecond)
		}
	}()
	wg.Wait()
}

func TestWindow_FalsePositiveRate(t *testing.T) {
	w := newWindow(10000, 0.01)
	for i := 0; i < 5000; i++ {
		w.seen(fmt.Sprintf("added-%d", i))
	}

	falsePositives := 0
	for i := 0; i < 1000; i++ {
		if w.seen(fmt.Sprintf("never-added-%d", i)) {
			falsePositives++
		}
	}
	if rate := float64(falsePositives) / 1000; rate > 0.05 {
		t.Errorf("false positive rate %.2f%%, want about 1%%", rate*100)
	}
}
