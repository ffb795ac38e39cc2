package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/model"
	"github.com/rickgao/predictors-stream/internal/subscription"
)

// Router fans events out to typed subscriber buffers. It is the single place
// where an untyped payload meets a channel's event type.
type Router struct {
	cfg      RouterConfig
	logger   *slog.Logger
	now      func() time.Time
	observer SnapshotObserver

	// Input from the transport, nil when only Publish/Deliver are used
	input <-chan Envelope

	subsMu sync.RWMutex
	subs   map[subscription.Key]*route
	taps   map[subscription.Kind]*route
	closed bool

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	received   int64
	routed     int64
	mismatched int64
	unrouted   int64
}

// route holds one buffer behind type-erased operations.
type route struct {
	buf   any // *GrowableBuffer[Message[E]]
	send  func(key subscription.Key, event any, receivedAt time.Time) bool
	close func()
	stats func() BufferStats
}

func newRoute[E any](size int) *route {
	buf := NewGrowableBuffer[Message[E]](size)
	return &route{
		buf: buf,
		send: func(key subscription.Key, event any, receivedAt time.Time) bool {
			return buf.Send(Message[E]{Key: key, Event: event.(E), ReceivedAt: receivedAt})
		},
		close: buf.Close,
		stats: buf.Stats,
	}
}

// Option configures a Router.
type Option func(*Router)

// WithClock sets the clock used to classify lifecycle snapshots.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// WithSnapshotObserver registers an observer for lifecycle snapshots.
func WithSnapshotObserver(o SnapshotObserver) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// NewRouter creates a new Router. input may be nil.
func NewRouter(cfg RouterConfig, input <-chan Envelope, logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		input:  input,
		subs:   make(map[subscription.Key]*route),
		taps:   make(map[subscription.Kind]*route),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe returns the buffer for sub. Equal subscriptions share one buffer.
// After Stop the returned buffer is closed.
func Subscribe[E any](r *Router, sub subscription.Subscription[E]) *GrowableBuffer[Message[E]] {
	key := sub.Key()

	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	if rt, ok := r.subs[key]; ok {
		return rt.buf.(*GrowableBuffer[Message[E]])
	}

	rt := newRoute[E](r.cfg.bufferSize(key.Channel))
	if r.closed {
		rt.close()
		return rt.buf.(*GrowableBuffer[Message[E]])
	}
	r.subs[key] = rt

	r.logger.Debug("subscribed", "key", key.String())
	return rt.buf.(*GrowableBuffer[Message[E]])
}

// Tap returns a buffer receiving every event on channel, across all markets.
func Tap[E any](r *Router, channel subscription.Channel[E]) *GrowableBuffer[Message[E]] {
	kind := channel.Kind()

	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	if rt, ok := r.taps[kind]; ok {
		return rt.buf.(*GrowableBuffer[Message[E]])
	}

	rt := newRoute[E](r.cfg.bufferSize(kind))
	if r.closed {
		rt.close()
		return rt.buf.(*GrowableBuffer[Message[E]])
	}
	r.taps[kind] = rt
	return rt.buf.(*GrowableBuffer[Message[E]])
}

// Unsubscribe removes the subscription for key and closes its buffer.
// Returns false if there was none.
func (r *Router) Unsubscribe(key subscription.Key) bool {
	r.subsMu.Lock()
	rt, ok := r.subs[key]
	delete(r.subs, key)
	r.subsMu.Unlock()

	if !ok {
		return false
	}
	rt.close()
	r.logger.Debug("unsubscribed", "key", key.String())
	return true
}

// Publish routes an inbound payload. The payload must be the inbound type of
// key.Channel: lifecycle.Snapshot for market lifecycles, which is classified
// with the router clock, and the event type itself for every other channel.
func (r *Router) Publish(key subscription.Key, payload any, receivedAt time.Time) error {
	r.count(&r.received)

	if !key.Channel.Valid() {
		r.count(&r.mismatched)
		return fmt.Errorf("%s: %w", key, ErrUnknownChannel)
	}

	event := payload
	if key.Channel == subscription.KindMarketLifecycles {
		snap, ok := payload.(lifecycle.Snapshot)
		if !ok {
			r.count(&r.mismatched)
			return fmt.Errorf("%w: %s got %T", ErrPayloadMismatch, key, payload)
		}
		if r.observer != nil {
			r.observer.Observe(key, snap)
		}
		event = lifecycle.Classify(snap, r.now())
	} else if err := checkEvent(key.Channel, payload); err != nil {
		r.count(&r.mismatched)
		return fmt.Errorf("%w: %s got %T", err, key, payload)
	}

	r.fanOut(key, event, receivedAt)
	return nil
}

// Deliver routes an event that is already of key.Channel's event type, such
// as a lifecycle.Update produced by the tracker.
func (r *Router) Deliver(key subscription.Key, event any, receivedAt time.Time) error {
	r.count(&r.received)

	if !key.Channel.Valid() {
		r.count(&r.mismatched)
		return fmt.Errorf("%s: %w", key, ErrUnknownChannel)
	}
	if err := checkEvent(key.Channel, event); err != nil {
		r.count(&r.mismatched)
		return fmt.Errorf("%w: %s got %T", err, key, event)
	}

	r.fanOut(key, event, receivedAt)
	return nil
}

// checkEvent reports whether v is the event type of kind.
func checkEvent(kind subscription.Kind, v any) error {
	var ok bool
	switch kind {
	case subscription.KindOrderbookDeltas:
		_, ok = v.(model.OrderbookUpdate)
	case subscription.KindTickers:
		_, ok = v.(model.TickerUpdate)
	case subscription.KindTrades:
		_, ok = v.(model.Trade)
	case subscription.KindFills:
		_, ok = v.(model.Fill)
	case subscription.KindMarketLifecycles:
		_, ok = v.(lifecycle.Update)
	default:
		return ErrUnknownChannel
	}
	if !ok {
		return ErrPayloadMismatch
	}
	return nil
}

// fanOut sends event to the key's subscriber and the channel tap.
func (r *Router) fanOut(key subscription.Key, event any, receivedAt time.Time) {
	r.subsMu.RLock()
	sub := r.subs[key]
	tap := r.taps[key.Channel]
	r.subsMu.RUnlock()

	delivered := false
	if sub != nil && sub.send(key, event, receivedAt) {
		delivered = true
	}
	if tap != nil && tap.send(key, event, receivedAt) {
		delivered = true
	}

	if delivered {
		r.count(&r.routed)
	} else {
		r.count(&r.unrouted)
		r.logger.Debug("no subscriber", "key", key.String())
	}
}

func (r *Router) count(n *int64) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}

// Start begins routing envelopes from the input channel.
func (r *Router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	if r.input != nil {
		r.wg.Add(1)
		go r.routeLoop()
	}

	r.logger.Info("message router started",
		"orderbook_buffer", r.cfg.OrderbookBufferSize,
		"ticker_buffer", r.cfg.TickerBufferSize,
		"trade_buffer", r.cfg.TradeBufferSize,
		"fill_buffer", r.cfg.FillBufferSize,
		"lifecycle_buffer", r.cfg.LifecycleBufferSize,
	)

	return nil
}

// Stop ends the route loop and closes every buffer.
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info("stopping message router")

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out")
	}

	r.subsMu.Lock()
	r.closed = true
	for _, rt := range r.subs {
		rt.close()
	}
	for _, rt := range r.taps {
		rt.close()
	}
	r.subsMu.Unlock()

	return nil
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.RLock()
	stats := RouterStats{
		MessagesReceived:  r.received,
		MessagesRouted:    r.routed,
		PayloadMismatches: r.mismatched,
		Unrouted:          r.unrouted,
	}
	r.mu.RUnlock()

	r.subsMu.RLock()
	defer r.subsMu.RUnlock()

	stats.Subscriptions = len(r.subs)
	stats.Taps = len(r.taps)
	stats.Buffers = make(map[string]BufferStats, len(r.subs)+len(r.taps))
	for key, rt := range r.subs {
		stats.Buffers[key.String()] = rt.stats()
	}
	for kind, rt := range r.taps {
		stats.Buffers["*/"+kind.String()] = rt.stats()
	}
	return stats
}

// routeLoop is the main routing goroutine.
func (r *Router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case env, ok := <-r.input:
			if !ok {
				r.logger.Info("router input closed")
				return
			}
			if err := r.Publish(env.Key, env.Payload, env.ReceivedAt); err != nil {
				r.logger.Warn("failed to route message", "key", env.Key.String(), "error", err)
			}
		}
	}
}
