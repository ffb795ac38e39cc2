package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/predictors-stream/internal/exchange"
)

// ErrUnknownMarketType is returned when decoding an unrecognized market type token.
var ErrUnknownMarketType = errors.New("unknown market type")

// MarketType identifies a market's payout structure.
type MarketType uint8

const (
	// Binary markets have YES and NO sides. If the payout criterion is met the
	// notional value goes to YES holders, otherwise to NO holders.
	Binary MarketType = iota

	// Scalar markets have LONG and SHORT sides (sometimes YES/NO in the API).
	// At settlement the notional value is split between them per the rules.
	Scalar
)

// String returns the lowercase token used by the exchange API.
func (t MarketType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Scalar:
		return "scalar"
	default:
		return fmt.Sprintf("MarketType(%d)", uint8(t))
	}
}

// ParseMarketType accepts "binary"/"scalar" in any case.
func ParseMarketType(token string) (MarketType, error) {
	switch strings.ToLower(token) {
	case "binary":
		return Binary, nil
	case "scalar":
		return Scalar, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMarketType, token)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t MarketType) MarshalText() ([]byte, error) {
	if t != Binary && t != Scalar {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMarketType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MarketType) UnmarshalText(text []byte) error {
	parsed, err := ParseMarketType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Series is a recurring grouping of events sharing a cadence.
type Series struct {
	Ticker    string `yaml:"ticker"`    // Primary key (e.g., "KXHIGHNY")
	Title     string `yaml:"title"`     // Display title
	Category  string `yaml:"category"`  // Category (e.g., "Climate")
	Frequency string `yaml:"frequency"` // Human-readable cadence: "daily", "weekly", "one-off"
}

func (s Series) String() string {
	return s.Ticker
}

// Event is a named occurrence containing one or more markets.
type Event struct {
	EventTicker       string `yaml:"event_ticker"`       // Primary key (e.g., "KXHIGHNY-24JUL14")
	SeriesTicker      string `yaml:"series_ticker"`      // Parent series
	Title             string `yaml:"title"`              // Display title
	MutuallyExclusive bool   `yaml:"mutually_exclusive"` // At most one market settles YES
}

func (e Event) String() string {
	return fmt.Sprintf("%s, %t", e.EventTicker, e.MutuallyExclusive)
}

// Market is a single tradable contract.
type Market struct {
	Ticker      string     `yaml:"ticker"`       // Primary key (e.g., "KXHIGHNY-24JUL14-T85")
	EventTicker string     `yaml:"event_ticker"` // Parent event
	Title       string     `yaml:"title"`        // Display title
	MarketType  MarketType `yaml:"market_type"`  // Defaults to binary
}

func (m Market) String() string {
	return m.Ticker + ", " + strings.ToUpper(m.MarketType.String())
}

// PredictionMarket is a market on a specific exchange.
type PredictionMarket struct {
	Exchange exchange.ID
	Market   string
}

// ID returns the unique identifier, e.g. "KAL:KXHIGHNY-24JUL14-T85".
func (p PredictionMarket) ID() string {
	return p.Exchange.String() + ":" + p.Market
}
