package subscription

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding an unrecognized channel name.
var ErrUnknownKind = errors.New("unknown channel")

// Kind enumerates the stream channels. Names are the exchange's channel names.
type Kind uint8

const (
	// KindOrderbookDeltas is a full snapshot of the aggregated price levels
	// followed by every update to it.
	KindOrderbookDeltas Kind = iota + 1

	// KindTickers carries the last price when it changes. On active markets
	// only the most recent change within each second is sent.
	KindTickers

	// KindTrades carries executed trades on subscribed markets.
	KindTrades

	// KindFills carries the client's own fills.
	KindFills

	// KindMarketLifecycles carries complete lifecycle snapshots, classified
	// into opened, paused, closed, determined and settled updates.
	KindMarketLifecycles
)

var kindNames = map[Kind]string{
	KindOrderbookDeltas:  "orderbook_delta",
	KindTickers:          "ticker",
	KindTrades:           "trade",
	KindFills:            "fill",
	KindMarketLifecycles: "market_lifecycle",
}

// Kinds returns the five channel kinds in catalog order.
func Kinds() []Kind {
	return []Kind{KindOrderbookDeltas, KindTickers, KindTrades, KindFills, KindMarketLifecycles}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the catalog kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts a channel name ("orderbook_delta", ...) to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Discipline describes how a transport must deliver events for a channel.
type Discipline struct {
	// InitialSnapshot: the stream opens with a full snapshot.
	InitialSnapshot bool

	// Sequenced: events must be applied in order; a gap or reordering
	// invalidates local state until a fresh snapshot arrives.
	Sequenced bool

	// Coalesced: at most one update per second per market; each update is the
	// latest value as of its timestamp, not an exhaustive log.
	Coalesced bool

	// AppendOnly: events are never revised; gaps are possible and tolerated.
	AppendOnly bool

	// SnapshotPerMessage: every message is complete and processed on its own.
	SnapshotPerMessage bool

	// Summary is a one-line human description.
	Summary string
}

var disciplines = map[Kind]Discipline{
	KindOrderbookDeltas: {
		InitialSnapshot: true,
		Sequenced:       true,
		Summary:         "snapshot then ordered deltas; a gap requires a fresh snapshot",
	},
	KindTickers: {
		Coalesced: true,
		Summary:   "last price on change, coalesced to one update per second",
	},
	KindTrades: {
		AppendOnly: true,
		Summary:    "append-only executed trades; gaps tolerated",
	},
	KindFills: {
		AppendOnly: true,
		Summary:    "append-only own fills; gaps tolerated",
	},
	KindMarketLifecycles: {
		SnapshotPerMessage: true,
		Summary:            "complete lifecycle snapshot per message, classified independently",
	},
}

// Discipline returns the delivery discipline for k.
func (k Kind) Discipline() Discipline {
	return disciplines[k]
}
