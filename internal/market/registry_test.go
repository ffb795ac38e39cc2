package market

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rickgao/predictors-stream/internal/model"
)

func seededRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil)

	c := Catalog{
		Series: []model.Series{
			{Ticker: "KXHIGHNY", Title: "NYC high temperature", Frequency: "daily"},
			{Ticker: "PRES", Title: "Presidential election", Frequency: "one-off"},
		},
		Events: []model.Event{
			{EventTicker: "KXHIGHNY-24JUL14", SeriesTicker: "KXHIGHNY", MutuallyExclusive: true},
			{EventTicker: "PRES-2024", SeriesTicker: "PRES", MutuallyExclusive: false},
		},
		Markets: []model.Market{
			{Ticker: "KXHIGHNY-24JUL14-T90", EventTicker: "KXHIGHNY-24JUL14"},
			{Ticker: "KXHIGHNY-24JUL14-T85", EventTicker: "KXHIGHNY-24JUL14"},
			{Ticker: "PRES-2024-DEM", EventTicker: "PRES-2024", MarketType: model.Scalar},
		},
	}
	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return r
}

func TestRegistry_AddAndGet(t *testing.T) {
	r := seededRegistry(t)

	m, ok := r.Market("PRES-2024-DEM")
	if !ok {
		t.Fatal("market not found")
	}
	if m.MarketType != model.Scalar {
		t.Errorf("MarketType = %v, want scalar", m.MarketType)
	}

	if _, ok := r.Market("NONEXISTENT"); ok {
		t.Error("expected market not found")
	}

	e, ok := r.Event("KXHIGHNY-24JUL14")
	if !ok {
		t.Fatal("event not found")
	}
	if e.SeriesTicker != "KXHIGHNY" {
		t.Errorf("SeriesTicker = %q, want %q", e.SeriesTicker, "KXHIGHNY")
	}

	s, ok := r.Series("PRES")
	if !ok {
		t.Fatal("series not found")
	}
	if s.Frequency != "one-off" {
		t.Errorf("Frequency = %q, want %q", s.Frequency, "one-off")
	}

	series, events, markets := r.Counts()
	if series != 2 || events != 2 || markets != 3 {
		t.Errorf("Counts() = (%d, %d, %d), want (2, 2, 3)", series, events, markets)
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := seededRegistry(t)

	if err := r.AddSeries(model.Series{Ticker: "PRES", Frequency: "weekly"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("AddSeries duplicate error = %v, want ErrAlreadyExists", err)
	}
	if err := r.AddEvent(model.Event{EventTicker: "PRES-2024", SeriesTicker: "PRES"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("AddEvent duplicate error = %v, want ErrAlreadyExists", err)
	}
	if err := r.AddMarket(model.Market{Ticker: "PRES-2024-DEM", EventTicker: "PRES-2024"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("AddMarket duplicate error = %v, want ErrAlreadyExists", err)
	}

	// The original entry is unchanged.
	s, _ := r.Series("PRES")
	if s.Frequency != "one-off" {
		t.Errorf("Frequency = %q, want %q", s.Frequency, "one-off")
	}
}

func TestRegistry_RejectsOrphans(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.AddEvent(model.Event{EventTicker: "E", SeriesTicker: "MISSING"}); !errors.Is(err, ErrUnknownSeries) {
		t.Errorf("AddEvent error = %v, want ErrUnknownSeries", err)
	}
	if err := r.AddMarket(model.Market{Ticker: "M", EventTicker: "MISSING"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("AddMarket error = %v, want ErrUnknownEvent", err)
	}
}

func TestRegistry_SeriesFrequency(t *testing.T) {
	r := seededRegistry(t)

	freq, err := r.SeriesFrequency("KXHIGHNY-24JUL14")
	if err != nil {
		t.Fatalf("SeriesFrequency failed: %v", err)
	}
	if freq != "daily" {
		t.Errorf("SeriesFrequency = %q, want %q", freq, "daily")
	}

	if _, err := r.SeriesFrequency("NONEXISTENT"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("SeriesFrequency error = %v, want ErrUnknownEvent", err)
	}
}

func TestRegistry_EventExclusivity(t *testing.T) {
	r := seededRegistry(t)

	tests := []struct {
		market string
		want   bool
	}{
		{"KXHIGHNY-24JUL14-T85", true},
		{"PRES-2024-DEM", false},
	}

	for _, tt := range tests {
		t.Run(tt.market, func(t *testing.T) {
			got, err := r.EventExclusivity(tt.market)
			if err != nil {
				t.Fatalf("EventExclusivity failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("EventExclusivity(%q) = %v, want %v", tt.market, got, tt.want)
			}
		})
	}

	if _, err := r.EventExclusivity("NONEXISTENT"); !errors.Is(err, ErrUnknownMarket) {
		t.Errorf("EventExclusivity error = %v, want ErrUnknownMarket", err)
	}
}

func TestRegistry_MarketsForEvent(t *testing.T) {
	r := seededRegistry(t)

	markets := r.MarketsForEvent("KXHIGHNY-24JUL14")
	if len(markets) != 2 {
		t.Fatalf("len(markets) = %d, want 2", len(markets))
	}
	if markets[0].Ticker != "KXHIGHNY-24JUL14-T85" || markets[1].Ticker != "KXHIGHNY-24JUL14-T90" {
		t.Errorf("markets = [%s %s], want sorted by ticker", markets[0].Ticker, markets[1].Ticker)
	}

	if got := r.MarketsForEvent("NONEXISTENT"); len(got) != 0 {
		t.Errorf("len(MarketsForEvent(NONEXISTENT)) = %d, want 0", len(got))
	}

	if all := r.Markets(); len(all) != 3 {
		t.Errorf("len(Markets()) = %d, want 3", len(all))
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := seededRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.EventExclusivity("PRES-2024-DEM"); err != nil {
				t.Errorf("EventExclusivity failed: %v", err)
			}
			if _, err := r.SeriesFrequency("PRES-2024"); err != nil {
				t.Errorf("SeriesFrequency failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestRegistry_LoadCatalog(t *testing.T) {
	doc := `
series:
  - ticker: KXHIGHNY
    title: NYC high temperature
    category: Climate
    frequency: daily
events:
  - event_ticker: KXHIGHNY-24JUL14
    series_ticker: KXHIGHNY
    mutually_exclusive: true
markets:
  - ticker: KXHIGHNY-24JUL14-T85
    event_ticker: KXHIGHNY-24JUL14
    market_type: binary
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	r := NewRegistry(nil)
	if err := r.LoadCatalog(path); err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	exclusive, err := r.EventExclusivity("KXHIGHNY-24JUL14-T85")
	if err != nil {
		t.Fatalf("EventExclusivity failed: %v", err)
	}
	if !exclusive {
		t.Error("EventExclusivity = false, want true")
	}

	if err := r.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestRegistry_LoadCatalog_OrphanMarket(t *testing.T) {
	doc := `
markets:
  - ticker: ORPHAN
    event_ticker: NOPE
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	err := NewRegistry(nil).LoadCatalog(path)
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("LoadCatalog error = %v, want ErrUnknownEvent", err)
	}
}
