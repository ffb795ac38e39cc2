package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxPrice is $1.00 in internal units.
const MaxPrice = 100_000

var internalScale = decimal.NewFromInt(MaxPrice)

// DollarsToInternal converts a dollar string to hundred-thousandths.
// "0.52" -> 52000, "0.5255" -> 52550. Returns 0 for empty or invalid input.
func DollarsToInternal(dollars string) int {
	if dollars == "" {
		return 0
	}
	d, err := decimal.NewFromString(dollars)
	if err != nil {
		return 0
	}
	return int(d.Mul(internalScale).Round(0).IntPart())
}

// InternalToDollars formats an internal price as a dollar string with four
// decimal places ("0.5250").
func InternalToDollars(price int) string {
	return decimal.NewFromInt(int64(price)).Div(internalScale).StringFixed(4)
}

// Orderbook update types.
const (
	OrderbookSnapshot = "snapshot"
	OrderbookDelta    = "delta"
)

// PriceLevel is one resting price on a side of the book.
type PriceLevel struct {
	Dollars  string `yaml:"dollars"` // e.g. "0.52", "0.5250"
	Quantity int    `yaml:"quantity"`
}

// OrderbookUpdate is the payload of the orderbook_delta channel: a full
// snapshot followed by sequenced deltas.
type OrderbookUpdate struct {
	Type   string `yaml:"type"` // OrderbookSnapshot or OrderbookDelta
	Ticker string `yaml:"ticker"`
	Seq    int64  `yaml:"seq"`

	// Snapshot-only
	Yes []PriceLevel `yaml:"yes,omitempty"`
	No  []PriceLevel `yaml:"no,omitempty"`

	// Delta-only
	PriceDollars string `yaml:"price_dollars,omitempty"`
	Delta        int    `yaml:"delta,omitempty"`
	Side         string `yaml:"side,omitempty"` // "yes" or "no"

	ExchangeTS time.Time `yaml:"ts"`
}

// TickerUpdate is the payload of the ticker channel. Only the latest price
// within a second is delivered on busy markets.
type TickerUpdate struct {
	Ticker             string    `yaml:"ticker"`
	PriceDollars       string    `yaml:"price_dollars"` // Last price
	YesBidDollars      string    `yaml:"yes_bid_dollars"`
	YesAskDollars      string    `yaml:"yes_ask_dollars"`
	Volume             int64     `yaml:"volume"`
	OpenInterest       int64     `yaml:"open_interest"`
	DollarVolume       int64     `yaml:"dollar_volume"`
	DollarOpenInterest int64     `yaml:"dollar_open_interest"`
	ExchangeTS         time.Time `yaml:"ts"`
}

// Trade is the payload of the trade channel.
type Trade struct {
	TradeID         uuid.UUID `yaml:"trade_id"`
	Ticker          string    `yaml:"ticker"`
	Size            int       `yaml:"size"` // Contracts (exchange: "count")
	YesPriceDollars string    `yaml:"yes_price_dollars"`
	NoPriceDollars  string    `yaml:"no_price_dollars"`
	TakerSide       string    `yaml:"taker_side"` // "yes" or "no"
	ExchangeTS      time.Time `yaml:"ts"`
}

// Fill is the payload of the fill channel: one of the client's own orders
// matching.
type Fill struct {
	TradeID         uuid.UUID `yaml:"trade_id"`
	OrderID         uuid.UUID `yaml:"order_id"`
	Ticker          string    `yaml:"ticker"`
	Side            string    `yaml:"side"`   // "yes" or "no"
	Action          string    `yaml:"action"` // "buy" or "sell"
	Count           int       `yaml:"count"`
	YesPriceDollars string    `yaml:"yes_price_dollars"`
	NoPriceDollars  string    `yaml:"no_price_dollars"`
	IsTaker         bool      `yaml:"is_taker"`
	ExchangeTS      time.Time `yaml:"ts"`
}
