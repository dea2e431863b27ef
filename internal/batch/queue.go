// Package batch holds the per-session pending event queue and the periodic
// flush scheduler that drains it.
package batch

import "sync"

// Queue is an ordered, append-only buffer of enriched event bodies that is
// emptied atomically by Drain. It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	events []map[string]any
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends an event and returns the new queue length.
func (q *Queue) Add(event map[string]any) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, event)
	return len(q.events)
}

// Drain atomically swaps out and returns all buffered events in insertion
// order. Events added after Drain returns land in a fresh buffer.
func (q *Queue) Drain() []map[string]any {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	events := q.events
	q.events = nil
	return events
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
