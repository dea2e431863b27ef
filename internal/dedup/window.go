package dedup

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// window is a two-generation bloom filter. Keys are recorded in the
// current generation and looked up in both. Rotating drops the older
// generation, so a key stays visible for between one and two rotation
// periods.
type window struct {
	mu       sync.RWMutex
	current  *bloom.BloomFilter
	previous *bloom.BloomFilter
	capacity uint
	fpRate   float64
}

func newWindow(capacity uint, fpRate float64) *window {
	return &window{
		current:  bloom.NewWithEstimates(capacity, fpRate),
		previous: bloom.NewWithEstimates(capacity, fpRate),
		capacity: capacity,
		fpRate:   fpRate,
	}
}

// seen reports whether key was recorded in either generation and records it
// if not.
func (w *window) seen(key string) bool {
	data := []byte(key)

	w.mu.RLock()
	hit := w.current.Test(data) || w.previous.Test(data)
	w.mu.RUnlock()
	if hit {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// another caller may have recorded the key between the locks
	if w.current.Test(data) || w.previous.Test(data) {
		return true
	}
	w.current.Add(data)
	return false
}

func (w *window) rotate() {
	fresh := bloom.NewWithEstimates(w.capacity, w.fpRate)

	w.mu.Lock()
	w.previous, w.current = w.current, fresh
	w.mu.Unlock()
}
