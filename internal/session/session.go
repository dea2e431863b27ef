// Package session tracks the live GameAnalytics session of each user.
//
// A Session owns its identity, immutable context snapshot, server clock
// offset, pending event queue, and flush scheduler. The Store maps user ids
// to their single live Session. The store is an explicit object owned by the
// client so independent clients never share state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SebastienMelki/gameanalytics/internal/batch"
)

// Session is one user's live session.
type Session struct {
	ID      string
	UserID  string
	Start   time.Time
	Context map[string]any

	// sendMu serializes drain-and-send so batches leave in queue order.
	sendMu sync.Mutex

	mu       sync.Mutex
	offset   int64
	synced   bool
	closed   bool
	queue    *batch.Queue
	schedule *batch.Scheduler
}

// New creates a session for userID with a fresh lowercase v4 uuid. The
// context builder receives the new session id so the snapshot can embed it.
func New(userID string, start time.Time, buildContext func(sessionID string) map[string]any) *Session {
	id := uuid.New().String()
	var ctx map[string]any
	if buildContext != nil {
		ctx = buildContext(id)
	}
	return &Session{
		ID:      id,
		UserID:  userID,
		Start:   start,
		Context: ctx,
		queue:   batch.NewQueue(),
	}
}

// Arm starts the session's flush scheduler. It is a no-op if the session
// already has one or has been closed, and reports whether a scheduler was
// started.
func (s *Session) Arm(ctx context.Context, interval time.Duration, tick batch.TickFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule != nil || s.closed {
		return false
	}
	s.schedule = batch.Start(ctx, interval, tick)
	return true
}

// Armed reports whether the session has a scheduler that has not been
// cancelled.
func (s *Session) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule != nil && !s.closed
}

// SetOffset records the server clock offset. Only the first call has effect.
func (s *Session) SetOffset(offset int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synced {
		return false
	}
	s.offset = offset
	s.synced = true
	return true
}

// Offset returns the server clock offset in seconds, 0 before the handshake.
func (s *Session) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Enqueue appends an enriched body to the pending queue. It returns false
// once the session has been closed.
func (s *Session) Enqueue(body map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.queue.Add(body)
	return true
}

// Close rejects further Enqueue calls, cancels the flush scheduler, and
// returns the events still pending. It waits for a batch being sent by Flush
// or Send, so nothing drained earlier can reach the backend after the
// returned events. It does not wait for the scheduler goroutine and is safe
// to call from a tick. Later calls return nil.
func (s *Session) Close() []map[string]any {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.closed = true
	sched := s.schedule
	events := s.queue.Drain()
	s.mu.Unlock()

	if sched != nil {
		sched.Cancel()
	}
	return events
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Flush drains the pending queue and hands the events to send. Flushes of
// one session never overlap.
func (s *Session) Flush(send func(events []map[string]any) error) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	events := s.queue.Drain()
	if len(events) == 0 {
		return nil
	}
	return send(events)
}

// Send hands events to send under the session's send lock unless the session
// is closed. It reports whether send was called.
func (s *Session) Send(events []map[string]any, send func(events []map[string]any) error) (bool, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.Closed() {
		return false, nil
	}
	return true, send(events)
}

// Drain empties the pending queue and returns its contents in order.
func (s *Session) Drain() []map[string]any {
	return s.queue.Drain()
}

// Pending returns the number of queued events.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Length returns the session length in whole seconds at now.
func (s *Session) Length(now time.Time) int64 {
	d := now.Sub(s.Start)
	if d < 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}
