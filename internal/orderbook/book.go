package orderbook

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rickgao/predictors-stream/internal/model"
)

// Errors returned by Apply.
var (
	ErrNoSnapshot     = errors.New("delta before snapshot")
	ErrSequenceGap    = errors.New("sequence gap")
	ErrTickerMismatch = errors.New("update for a different market")
	ErrUnknownSide    = errors.New("unknown side")
	ErrUnknownType    = errors.New("unknown orderbook update type")
)

// Side of the book.
type Side string

const (
	Yes Side = "yes"
	No  Side = "no"
)

// Level is one price and its resting quantity.
type Level struct {
	Price    int
	Quantity int
}

// Book is the reconstructed order book of one market. It is safe for
// concurrent use.
type Book struct {
	ticker string

	mu    sync.RWMutex
	yes   map[int]int
	no    map[int]int
	seq   int64
	valid bool
}

// NewBook creates an empty, invalid book for ticker.
func NewBook(ticker string) *Book {
	return &Book{
		ticker: ticker,
		yes:    make(map[int]int),
		no:     make(map[int]int),
	}
}

// Ticker returns the market ticker.
func (b *Book) Ticker() string {
	return b.ticker
}

// Apply applies a snapshot or delta. A snapshot replaces the book. A delta
// must carry the next sequence number; on a gap the book is invalidated
// until the next snapshot.
func (b *Book) Apply(u model.OrderbookUpdate) error {
	if u.Ticker != "" && u.Ticker != b.ticker {
		return fmt.Errorf("%w: %s on %s", ErrTickerMismatch, u.Ticker, b.ticker)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch u.Type {
	case model.OrderbookSnapshot:
		b.yes = levelsToMap(u.Yes)
		b.no = levelsToMap(u.No)
		b.seq = u.Seq
		b.valid = true
		return nil

	case model.OrderbookDelta:
		if !b.valid {
			return ErrNoSnapshot
		}
		if u.Seq != b.seq+1 {
			b.valid = false
			return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, b.seq+1, u.Seq)
		}

		side, err := b.sideLocked(Side(u.Side))
		if err != nil {
			return err
		}
		price := model.DollarsToInternal(u.PriceDollars)
		qty := side[price] + u.Delta
		if qty <= 0 {
			delete(side, price)
		} else {
			side[price] = qty
		}
		b.seq = u.Seq
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownType, u.Type)
}

// Valid reports whether the book is in sync with the stream.
func (b *Book) Valid() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.valid
}

// Seq returns the last applied sequence number.
func (b *Book) Seq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// BestYesBid returns the highest YES bid.
func (b *Book) BestYesBid() (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return best(b.yes)
}

// BestNoBid returns the highest NO bid.
func (b *Book) BestNoBid() (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return best(b.no)
}

// BestYesAsk returns the lowest YES ask, implied by the best NO bid:
// buying NO at p is selling YES at MaxPrice - p.
func (b *Book) BestYesAsk() (Level, bool) {
	lvl, ok := b.BestNoBid()
	if !ok {
		return Level{}, false
	}
	return Level{Price: model.MaxPrice - lvl.Price, Quantity: lvl.Quantity}, true
}

// Spread returns BestYesAsk - BestYesBid. ok is false if either side is empty.
func (b *Book) Spread() (int, bool) {
	bid, ok := b.BestYesBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestYesAsk()
	if !ok {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Levels returns one side's levels, best price first.
func (b *Book) Levels(side Side) ([]Level, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, err := b.sideLocked(side)
	if err != nil {
		return nil, err
	}

	levels := make([]Level, 0, len(m))
	for price, qty := range m {
		levels = append(levels, Level{Price: price, Quantity: qty})
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price > levels[j].Price
	})
	return levels, nil
}

func (b *Book) sideLocked(side Side) (map[int]int, error) {
	switch side {
	case Yes:
		return b.yes, nil
	case No:
		return b.no, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSide, side)
}

func levelsToMap(levels []model.PriceLevel) map[int]int {
	m := make(map[int]int, len(levels))
	for _, lvl := range levels {
		if lvl.Quantity > 0 {
			m[model.DollarsToInternal(lvl.Dollars)] += lvl.Quantity
		}
	}
	return m
}

func best(m map[int]int) (Level, bool) {
	var (
		lvl   Level
		found bool
	)
	for price, qty := range m {
		if !found || price > lvl.Price {
			lvl = Level{Price: price, Quantity: qty}
			found = true
		}
	}
	return lvl, found
}
