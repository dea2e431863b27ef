// Package gameanalytics is a server-side client for the GameAnalytics REST
// API v2.
//
// A Client keeps one live session per user. Events tracked for a user are
// enriched with the session context, validated against the GameAnalytics
// schema, and queued; each session flushes its queue on a fixed interval as
// one gzip-compressed, HMAC-signed batch.
//
// Usage:
//
//	client, err := gameanalytics.New(gameanalytics.Config{Sandbox: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(context.Background())
//
//	_, err = client.StartSession(ctx, "player-1", gameanalytics.ContextInput{UserAgent: ua})
//	client.Track(gameanalytics.CategoryDesign, "player-1", map[string]any{"event_id": "Menu:Open"})
//	client.EndSession(ctx, "player-1")
package gameanalytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/SebastienMelki/gameanalytics/internal/dedup"
	"github.com/SebastienMelki/gameanalytics/internal/enrich"
	"github.com/SebastienMelki/gameanalytics/internal/observability"
	"github.com/SebastienMelki/gameanalytics/internal/schema"
	"github.com/SebastienMelki/gameanalytics/internal/session"
	"github.com/SebastienMelki/gameanalytics/internal/transport"
	"github.com/SebastienMelki/gameanalytics/internal/useragent"
)

// Client tracks GameAnalytics sessions and events. It is safe for
// concurrent use.
type Client struct {
	config     Config
	store      *session.Store
	validator  *schema.Validator
	dispatcher transport.Dispatcher
	dedup      *dedup.Filter
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      func() time.Time
	meta       enrich.Meta
	mirrors    []transport.Mirror
	callbacks  callbacks

	ctx       context.Context
	cancelFn  context.CancelFunc
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates a client. Call Close when done to end every live session.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Client{
		config:    cfg,
		store:     session.NewStore(),
		validator: schema.NewValidator(),
		metrics:   observability.Noop(),
		logger:    slog.Default(),
		clock:     time.Now,
		meta:      enrich.Meta{Build: cfg.Build},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "gameanalytics")

	if c.dispatcher == nil {
		tc := cfg.transportConfig()
		tc.RoundTripper = observability.RoundTripper(c.metrics, nil)
		c.dispatcher = transport.New(tc, c.logger, c.mirrors...)
	}

	c.ctx, c.cancelFn = context.WithCancel(context.Background())

	if cfg.Dedup.Enabled {
		c.dedup = dedup.New(cfg.Dedup, c.metrics, c.logger)
		c.dedup.Start(c.ctx)
	}

	c.logger.Info("client created",
		"host", cfg.Host,
		"sandbox", cfg.Sandbox,
		"flush_interval", cfg.FlushInterval,
	)

	return c, nil
}

// StartSession opens a session for userID, replacing any live one, and
// performs the init handshake. The returned SessionInfo carries the context
// snapshot and server offset. A failed handshake returns an error wrapping
// ErrHandshake; the session stays live with a zero offset. If the session
// is ended or replaced before the handshake completes, ErrSessionClosed is
// returned and nothing further is sent for it.
func (c *Client) StartSession(ctx context.Context, userID string, in ContextInput) (*SessionInfo, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	inferred := useragent.Infer(in.UserAgent, in.Platform, in.OSVersion)
	fields := in.fields()
	fields["platform"] = inferred.Platform
	fields["os_version"] = inferred.OSVersion

	sess := session.New(userID, c.clock(), func(sessionID string) map[string]any {
		return enrich.Snapshot(userID, sessionID, fields)
	})

	if old := c.store.Put(sess); old != nil {
		c.logger.Debug("replacing live session", "user_id", userID, "old_session_id", old.ID)
		_ = c.retire(ctx, old, false)
	}
	c.metrics.SessionsActive.Add(ctx, 1)
	c.metrics.SessionsStarted.Add(ctx, 1)

	// an EndSession landing since Put has already closed sess; Arm is then a no-op
	sess.Arm(c.ctx, c.config.FlushInterval, func(tickCtx context.Context) {
		// stopping the scheduler must not abort a batch already drained
		_ = c.flushSession(context.WithoutCancel(tickCtx), sess)
	})

	c.logger.Debug("session started",
		"user_id", userID,
		"session_id", sess.ID,
		"platform", inferred.Platform,
	)

	resp, err := c.dispatcher.Send(ctx, transport.EndpointInit,
		[]map[string]any{enrich.InitBody(inferred.Platform, inferred.OSVersion)})
	if err == nil {
		var init transport.InitResponse
		init, err = transport.ParseInit(resp)
		if err == nil {
			return c.completeHandshake(ctx, sess, init)
		}
	}

	c.reportTransport(err, userID, transport.EndpointInit)
	return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
}

func (c *Client) completeHandshake(ctx context.Context, sess *session.Session, init transport.InitResponse) (*SessionInfo, error) {
	if !c.store.Current(sess) {
		c.logger.Debug("handshake completed for a retired session", "user_id", sess.UserID, "session_id", sess.ID)
		return nil, ErrSessionClosed
	}

	offset := enrich.Offset(c.clock(), init.ServerTS)
	sess.SetOffset(offset)

	if !init.Enabled {
		c.logger.Warn("game is disabled on the GameAnalytics backend", "user_id", sess.UserID)
	}

	begin := enrich.Body(session.CategoryUser, session.StartEvent(), c.meta, sess.Context,
		enrich.ClientTS(c.clock(), offset))
	sent, err := sess.Send([]map[string]any{begin}, func(events []map[string]any) error {
		_, err := c.dispatcher.Send(ctx, transport.EndpointEvents, events)
		return err
	})
	if !sent {
		c.logger.Debug("session ended before its begin event was sent", "user_id", sess.UserID, "session_id", sess.ID)
		return nil, ErrSessionClosed
	}
	if err != nil {
		c.reportTransport(err, sess.UserID, transport.EndpointEvents)
	}

	return &SessionInfo{
		Start:  enrich.Unix(sess.Start),
		Data:   enrich.Copy(sess.Context),
		Offset: offset,
	}, nil
}

// EndSession ends the live session of userID. Pending events are sent
// immediately followed by a session_end marker carrying the session length.
// Unknown users are ignored.
func (c *Client) EndSession(ctx context.Context, userID string) {
	sess := c.store.Remove(userID)
	if sess == nil {
		c.logger.Debug("end session ignored: no live session", "user_id", userID)
		return
	}
	_ = c.retire(ctx, sess, true)
}

// Track enriches, validates, and queues an event for userID's live session.
// Events for users without a session and events that fail validation are
// dropped; failures are reported through the logger and error callbacks.
func (c *Client) Track(eventType, userID string, fields map[string]any) {
	sess := c.store.Get(userID)
	if sess == nil {
		c.dropUnknownUser(eventType, userID)
		return
	}

	now := c.clock()
	body := enrich.Body(eventType, fields, c.meta, sess.Context, enrich.ClientTS(now, sess.Offset()))

	categoryAttr := otelmetric.WithAttributes(attribute.String("category", eventType))

	if violations := c.validator.Validate(eventType, body); violations.HasErrors() {
		c.metrics.EventsRejected.Add(context.Background(), 1,
			otelmetric.WithAttributes(attribute.String("category", eventType), attribute.String("reason", "validation")))
		c.report(&SDKError{
			Code:       ErrCodeValidationFailed,
			Message:    fmt.Sprintf("%s event dropped: %s", eventType, violations.Error()),
			Severity:   SeverityWarning,
			UserID:     userID,
			Violations: violations,
		})
		return
	}

	if eventType == CategoryBusiness && c.dedup != nil && c.dedup.Duplicate(userID, fields) {
		return
	}

	if !sess.Enqueue(body) {
		c.dropUnknownUser(eventType, userID)
		return
	}
	c.metrics.EventsTracked.Add(context.Background(), 1, categoryAttr)
}

func (c *Client) dropUnknownUser(eventType, userID string) {
	c.metrics.EventsDropped.Add(context.Background(), 1,
		otelmetric.WithAttributes(attribute.String("category", eventType)))
	c.report(&SDKError{
		Code:     ErrCodeUnknownUser,
		Message:  fmt.Sprintf("%s event dropped: no live session", eventType),
		Severity: SeverityDebug,
		UserID:   userID,
	})
}

// Flush sends the pending events of every live session now.
func (c *Client) Flush(ctx context.Context) error {
	var errs []error
	for _, sess := range c.store.All() {
		if err := c.flushSession(ctx, sess); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close ends every live session, stops background work, and rejects further
// sessions. It is safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		var errs []error
		for _, sess := range c.store.RemoveAll() {
			if rerr := c.retire(ctx, sess, true); rerr != nil {
				errs = append(errs, rerr)
			}
		}

		if c.dedup != nil {
			c.dedup.Stop()
		}
		c.cancelFn()

		err = errors.Join(errs...)
		c.logger.Info("client closed")
	})
	return err
}

// ActiveSessions returns the number of live sessions.
func (c *Client) ActiveSessions() int {
	return c.store.Len()
}

// retire closes a session that has already left the store and sends what it
// still holds. With end set, a session_end marker is appended as the last
// event. Errors are reported after the session's send lock is released, so an
// ErrorCallback may call back into the client.
func (c *Client) retire(ctx context.Context, sess *session.Session, end bool) error {
	events := sess.Close()

	if end {
		now := c.clock()
		marker := enrich.Body(session.CategorySessionEnd, session.EndEvent(sess.Length(now)), c.meta,
			sess.Context, enrich.ClientTS(now, sess.Offset()))
		events = append(events, marker)
	}

	c.metrics.SessionsActive.Add(ctx, -1)
	c.logger.Debug("session retired",
		"user_id", sess.UserID,
		"session_id", sess.ID,
		"pending", len(events),
		"ended", end,
	)

	if len(events) == 0 {
		return nil
	}
	if err := c.send(ctx, sess, events); err != nil {
		c.reportTransport(err, sess.UserID, transport.EndpointEvents)
		return err
	}
	return nil
}

// flushSession sends the pending events of sess if it is still live. It runs
// on the scheduler tick and from Flush.
func (c *Client) flushSession(ctx context.Context, sess *session.Session) error {
	// a tick may race with EndSession or a replacement
	if !c.store.Current(sess) {
		return nil
	}

	err := sess.Flush(func(events []map[string]any) error {
		return c.send(ctx, sess, events)
	})
	if err != nil {
		c.reportTransport(err, sess.UserID, transport.EndpointEvents)
	}
	return err
}

// send posts one batch of sess. It never reports; callers do once no
// session lock is held.
func (c *Client) send(ctx context.Context, sess *session.Session, events []map[string]any) error {
	c.metrics.BatchesFlushed.Add(ctx, 1)
	c.metrics.BatchSize.Record(ctx, int64(len(events)))

	if _, err := c.dispatcher.Send(ctx, transport.EndpointEvents, events); err != nil {
		return err
	}

	c.logger.Debug("batch flushed",
		"user_id", sess.UserID,
		"session_id", sess.ID,
		"events", len(events),
	)
	return nil
}

// reportTransport classifies a dispatcher error and reports it.
func (c *Client) reportTransport(err error, userID string, endpoint transport.Endpoint) {
	code := ErrCodeNetworkError

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		code = ErrCodeServerError
		if statusErr.Rejected() {
			code = ErrCodeRejected
			c.metrics.EventsRejected.Add(context.Background(), int64(len(statusErr.Rejections)),
				otelmetric.WithAttributes(attribute.String("reason", "server")))
		}
	}

	c.report(&SDKError{
		Code:     code,
		Message:  fmt.Sprintf("%s request failed: %v", endpoint, err),
		Severity: SeverityCritical,
		UserID:   userID,
		err:      err,
	})
}
