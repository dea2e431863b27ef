package gameanalytics

import (
	"context"
	"log/slog"
	"sync"
)

// ErrorCallback is notified of every Warning or Critical SDKError.
type ErrorCallback interface {
	OnError(err *SDKError)
}

// ErrorCallbackFunc adapts a function to ErrorCallback.
type ErrorCallbackFunc func(err *SDKError)

// OnError calls f(err).
func (f ErrorCallbackFunc) OnError(err *SDKError) {
	f(err)
}

// callbacks is the per-client callback registry.
type callbacks struct {
	mu   sync.RWMutex
	list []ErrorCallback
}

func (c *callbacks) add(cb ErrorCallback) {
	if cb == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, cb)
}

func (c *callbacks) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
}

func (c *callbacks) notify(err *SDKError) {
	c.mu.RLock()
	list := make([]ErrorCallback, len(c.list))
	copy(list, c.list)
	c.mu.RUnlock()

	for _, cb := range list {
		cb.OnError(err)
	}
}

// RegisterErrorCallback adds a callback for dropped events and failed
// deliveries. Callbacks run synchronously on the goroutine that hit the
// error and must not block.
func (c *Client) RegisterErrorCallback(cb ErrorCallback) {
	c.callbacks.add(cb)
}

// UnregisterErrorCallbacks removes every registered callback.
func (c *Client) UnregisterErrorCallbacks() {
	c.callbacks.clear()
}

// report logs err at its severity and notifies callbacks for Warning and
// above.
func (c *Client) report(err *SDKError) {
	if err == nil {
		return
	}

	level := slog.LevelDebug
	switch err.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityCritical:
		level = slog.LevelError
	}

	attrs := []any{"code", err.Code}
	if err.UserID != "" {
		attrs = append(attrs, "user_id", err.UserID)
	}
	if len(err.Violations) > 0 {
		attrs = append(attrs, "fields", err.Violations.Fields())
	}
	c.logger.Log(context.Background(), level, err.Message, attrs...)

	if err.Severity >= SeverityWarning {
		c.callbacks.notify(err)
	}
}
