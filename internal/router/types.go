package router

import (
	"errors"
	"time"

	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/subscription"
)

// Errors returned by Publish and Deliver.
var (
	ErrPayloadMismatch = errors.New("payload does not match channel")
	ErrUnknownChannel  = errors.New("unknown channel")
)

// RouterConfig holds configuration for the Router.
type RouterConfig struct {
	// Per-subscription buffer sizes, by channel kind
	OrderbookBufferSize int // Default: 5000
	TickerBufferSize    int // Default: 1000
	TradeBufferSize     int // Default: 1000
	FillBufferSize      int // Default: 1000
	LifecycleBufferSize int // Default: 1000
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		OrderbookBufferSize: 5000,
		TickerBufferSize:    1000,
		TradeBufferSize:     1000,
		FillBufferSize:      1000,
		LifecycleBufferSize: 1000,
	}
}

// bufferSize returns the initial buffer size for a channel kind.
func (c RouterConfig) bufferSize(kind subscription.Kind) int {
	switch kind {
	case subscription.KindOrderbookDeltas:
		return c.OrderbookBufferSize
	case subscription.KindTickers:
		return c.TickerBufferSize
	case subscription.KindTrades:
		return c.TradeBufferSize
	case subscription.KindFills:
		return c.FillBufferSize
	case subscription.KindMarketLifecycles:
		return c.LifecycleBufferSize
	}
	return 1
}

// Message is one event delivered to a subscriber.
type Message[E any] struct {
	Key        subscription.Key
	Event      E
	ReceivedAt time.Time
}

// Envelope is an untyped payload from the transport. The payload type must
// match Key.Channel; see Router.Publish.
type Envelope struct {
	Key        subscription.Key
	Payload    any
	ReceivedAt time.Time
}

// SnapshotObserver is notified of every lifecycle snapshot the router accepts.
type SnapshotObserver interface {
	Observe(key subscription.Key, snap lifecycle.Snapshot)
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived  int64
	MessagesRouted    int64
	PayloadMismatches int64
	Unrouted          int64
	Subscriptions     int
	Taps              int
	Buffers           map[string]BufferStats // by key or channel name
}
