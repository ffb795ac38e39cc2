package market

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rickgao/predictors-stream/internal/model"
)

// Errors
var (
	ErrAlreadyExists = errors.New("already registered")
	ErrUnknownSeries = errors.New("unknown series")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrUnknownMarket = errors.New("unknown market")
)

// Registry is the thread-safe owner of the Series -> Event -> Market hierarchy.
type Registry struct {
	logger *slog.Logger

	mu     sync.RWMutex
	series map[string]*model.Series
	events map[string]*model.Event
	// All known markets indexed by ticker.
	markets map[string]*model.Market

	// Event ticker -> market tickers.
	eventMarkets map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:       logger,
		series:       make(map[string]*model.Series),
		events:       make(map[string]*model.Event),
		markets:      make(map[string]*model.Market),
		eventMarkets: make(map[string][]string),
	}
}

// AddSeries registers a series.
func (r *Registry) AddSeries(s model.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.series[s.Ticker]; ok {
		return fmt.Errorf("series %s: %w", s.Ticker, ErrAlreadyExists)
	}

	sCopy := s
	r.series[s.Ticker] = &sCopy
	return nil
}

// AddEvent registers an event. Its series must already be registered.
func (r *Registry) AddEvent(e model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[e.EventTicker]; ok {
		return fmt.Errorf("event %s: %w", e.EventTicker, ErrAlreadyExists)
	}
	if _, ok := r.series[e.SeriesTicker]; !ok {
		return fmt.Errorf("event %s: %w %q", e.EventTicker, ErrUnknownSeries, e.SeriesTicker)
	}

	eCopy := e
	r.events[e.EventTicker] = &eCopy
	return nil
}

// AddMarket registers a market. Its event must already be registered.
func (r *Registry) AddMarket(m model.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.markets[m.Ticker]; ok {
		return fmt.Errorf("market %s: %w", m.Ticker, ErrAlreadyExists)
	}
	if _, ok := r.events[m.EventTicker]; !ok {
		return fmt.Errorf("market %s: %w %q", m.Ticker, ErrUnknownEvent, m.EventTicker)
	}

	mCopy := m
	r.markets[m.Ticker] = &mCopy
	r.eventMarkets[m.EventTicker] = append(r.eventMarkets[m.EventTicker], m.Ticker)
	return nil
}

// Series returns a series by ticker.
func (r *Registry) Series(ticker string) (model.Series, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.series[ticker]
	if !ok {
		return model.Series{}, false
	}
	return *s, true
}

// Event returns an event by ticker.
func (r *Registry) Event(ticker string) (model.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[ticker]
	if !ok {
		return model.Event{}, false
	}
	return *e, true
}

// Market returns a market by ticker.
func (r *Registry) Market(ticker string) (model.Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[ticker]
	if !ok {
		return model.Market{}, false
	}
	return *m, true
}

// Markets returns a copy of every registered market, sorted by ticker.
func (r *Registry) Markets() []model.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.Market, 0, len(r.markets))
	for _, m := range r.markets {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ticker < result[j].Ticker })
	return result
}

// MarketsForEvent returns the markets of an event, sorted by ticker.
func (r *Registry) MarketsForEvent(eventTicker string) []model.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickers := r.eventMarkets[eventTicker]
	result := make([]model.Market, 0, len(tickers))
	for _, t := range tickers {
		result = append(result, *r.markets[t])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ticker < result[j].Ticker })
	return result
}

// SeriesFrequency returns the frequency of the event's parent series.
func (r *Registry) SeriesFrequency(eventTicker string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[eventTicker]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownEvent, eventTicker)
	}
	// Parents are checked on insert and never removed.
	return r.series[e.SeriesTicker].Frequency, nil
}

// EventExclusivity reports whether the market's parent event is mutually exclusive.
func (r *Registry) EventExclusivity(marketTicker string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[marketTicker]
	if !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownMarket, marketTicker)
	}
	return r.events[m.EventTicker].MutuallyExclusive, nil
}

// Counts returns the number of registered series, events and markets.
func (r *Registry) Counts() (series, events, markets int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.series), len(r.events), len(r.markets)
}
