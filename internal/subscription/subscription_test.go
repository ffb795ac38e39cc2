package subscription

import (
	"errors"
	"testing"

	"github.com/rickgao/predictors-stream/internal/exchange"
	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/model"
)

func TestNew(t *testing.T) {
	sub := New(exchange.Kalshi, "TEST-MARKET", Trades)

	if sub.Exchange != exchange.Kalshi {
		t.Errorf("Exchange = %v, want %v", sub.Exchange, exchange.Kalshi)
	}
	if sub.Market != "TEST-MARKET" {
		t.Errorf("Market = %q, want %q", sub.Market, "TEST-MARKET")
	}
	if sub.Channel.Kind() != KindTrades {
		t.Errorf("Channel.Kind() = %v, want %v", sub.Channel.Kind(), KindTrades)
	}
}

func TestSubscription_StructuralEquality(t *testing.T) {
	a := New(exchange.Kalshi, "TEST-MARKET", MarketLifecycles)
	b := New(exchange.Kalshi, "TEST-MARKET", MarketLifecycles)
	c := New(exchange.Kalshi, "OTHER-MARKET", MarketLifecycles)

	if a != b {
		t.Error("subscriptions built from the same triple should be equal")
	}
	if a == c {
		t.Error("subscriptions for different markets should differ")
	}

	seen := map[Subscription[lifecycle.Update]]int{}
	seen[a]++
	seen[b]++
	if seen[a] != 2 {
		t.Errorf("seen[a] = %d, want 2", seen[a])
	}
}

func TestKey(t *testing.T) {
	lc := New(exchange.Kalshi, "TEST-MARKET", MarketLifecycles)
	ob := New(exchange.Kalshi, "TEST-MARKET", OrderbookDeltas)

	if lc.Key() == ob.Key() {
		t.Error("keys for different channels on the same market should differ")
	}
	if lc.Key() != New(exchange.Kalshi, "TEST-MARKET", MarketLifecycles).Key() {
		t.Error("keys for equal subscriptions should be equal")
	}

	want := "KAL:TEST-MARKET/market_lifecycle"
	if got := lc.Key().String(); got != want {
		t.Errorf("Key().String() = %q, want %q", got, want)
	}
	if got := lc.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	pm := lc.Key().PredictionMarket()
	if pm.ID() != "KAL:TEST-MARKET" {
		t.Errorf("PredictionMarket().ID() = %q, want %q", pm.ID(), "KAL:TEST-MARKET")
	}
}

// The channel fixes the event type; these only compile if it does.
func TestChannel_EventTypes(t *testing.T) {
	var _ Subscription[model.OrderbookUpdate] = New(exchange.Kalshi, "M", OrderbookDeltas)
	var _ Subscription[model.TickerUpdate] = New(exchange.Kalshi, "M", Tickers)
	var _ Subscription[model.Trade] = New(exchange.Kalshi, "M", Trades)
	var _ Subscription[model.Fill] = New(exchange.Kalshi, "M", Fills)
	var _ Subscription[lifecycle.Update] = New(exchange.Kalshi, "M", MarketLifecycles)
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 5 {
		t.Fatalf("len(Kinds()) = %d, want 5", len(kinds))
	}

	want := []string{"orderbook_delta", "ticker", "trade", "fill", "market_lifecycle"}
	for i, k := range kinds {
		if k.String() != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, k.String(), want[i])
		}
		parsed, err := ParseKind(want[i])
		if err != nil {
			t.Fatalf("ParseKind(%q) unexpected error: %v", want[i], err)
		}
		if parsed != k {
			t.Errorf("ParseKind(%q) = %v, want %v", want[i], parsed, k)
		}
	}

	if _, err := ParseKind("orderbook"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(orderbook) error = %v, want ErrUnknownKind", err)
	}

	var zero Kind
	if zero.Valid() {
		t.Error("zero Kind should not be valid")
	}
}

func TestKind_Discipline(t *testing.T) {
	tests := []struct {
		kind  Kind
		check func(Discipline) bool
	}{
		{KindOrderbookDeltas, func(d Discipline) bool { return d.InitialSnapshot && d.Sequenced && !d.AppendOnly }},
		{KindTickers, func(d Discipline) bool { return d.Coalesced && !d.InitialSnapshot }},
		{KindTrades, func(d Discipline) bool { return d.AppendOnly && !d.Sequenced }},
		{KindFills, func(d Discipline) bool { return d.AppendOnly && !d.Sequenced }},
		{KindMarketLifecycles, func(d Discipline) bool { return d.SnapshotPerMessage && !d.Sequenced }},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			d := tt.kind.Discipline()
			if !tt.check(d) {
				t.Errorf("Discipline() = %+v, unexpected flags", d)
			}
			if d.Summary == "" {
				t.Error("Summary should not be empty")
			}
		})
	}
}
