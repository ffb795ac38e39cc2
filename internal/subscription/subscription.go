package subscription

import (
	"github.com/rickgao/predictors-stream/internal/exchange"
	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/model"
)

// Channel is a channel kind whose consumers receive events of type E.
type Channel[E any] struct {
	kind Kind
}

// Kind returns the channel kind.
func (c Channel[E]) Kind() Kind {
	return c.kind
}

func (c Channel[E]) String() string {
	return c.kind.String()
}

// The channel catalog.
var (
	OrderbookDeltas  = Channel[model.OrderbookUpdate]{kind: KindOrderbookDeltas}
	Tickers          = Channel[model.TickerUpdate]{kind: KindTickers}
	Trades           = Channel[model.Trade]{kind: KindTrades}
	Fills            = Channel[model.Fill]{kind: KindFills}
	MarketLifecycles = Channel[lifecycle.Update]{kind: KindMarketLifecycles}
)

// Subscription identifies one logical stream: a channel on a market on an
// exchange. Subscriptions compare by value; two built from the same triple
// are interchangeable.
type Subscription[E any] struct {
	Exchange exchange.ID
	Market   string
	Channel  Channel[E]
}

// New creates a subscription. It performs no validation.
func New[E any](ex exchange.ID, market string, channel Channel[E]) Subscription[E] {
	return Subscription[E]{
		Exchange: ex,
		Market:   market,
		Channel:  channel,
	}
}

// Key returns the untyped dispatch key for s.
func (s Subscription[E]) Key() Key {
	return Key{
		Exchange: s.Exchange,
		Market:   s.Market,
		Channel:  s.Channel.Kind(),
	}
}

func (s Subscription[E]) String() string {
	return s.Key().String()
}

// Key is the dispatch key for any channel.
type Key struct {
	Exchange exchange.ID
	Market   string
	Channel  Kind
}

// PredictionMarket returns the (exchange, market) part of k.
func (k Key) PredictionMarket() model.PredictionMarket {
	return model.PredictionMarket{Exchange: k.Exchange, Market: k.Market}
}

// String formats as "KAL:<ticker>/<channel>".
func (k Key) String() string {
	return k.PredictionMarket().ID() + "/" + k.Channel.String()
}
