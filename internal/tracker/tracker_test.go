package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/predictors-stream/internal/exchange"
	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/subscription"
)

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recorder collects emitted updates.
type recorder struct {
	mu      sync.Mutex
	updates map[subscription.Key][]lifecycle.Update
	err     error
}

func newRecorder() *recorder {
	return &recorder{updates: make(map[subscription.Key][]lifecycle.Update)}
}

func (r *recorder) HandleUpdate(key subscription.Key, u lifecycle.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[key] = append(r.updates[key], u)
	return r.err
}

func (r *recorder) states(key subscription.Key) []lifecycle.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []lifecycle.State
	for _, u := range r.updates[key] {
		out = append(out, u.State)
	}
	return out
}

var t0 = time.Date(2024, 7, 14, 12, 0, 0, 0, time.UTC)

func key(market string) subscription.Key {
	return subscription.New(exchange.Kalshi, market, subscription.MarketLifecycles).Key()
}

func openSnapshot(closeIn time.Duration) lifecycle.Snapshot {
	return lifecycle.Snapshot{OpenTS: t0.Add(-time.Hour), CloseTS: t0.Add(closeIn)}
}

func TestTracker_ClosesByElapsedTime(t *testing.T) {
	clock := &fakeClock{now: t0}
	rec := newRecorder()
	tr := New(DefaultConfig(), rec, nil, WithClock(clock.Now))

	k := key("MKT-A")
	update, err := tr.Track(k, openSnapshot(30*time.Minute))
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if update.State != lifecycle.Opened {
		t.Fatalf("Track() state = %v, want opened", update.State)
	}

	// Before close: nothing changes
	clock.Set(t0.Add(10 * time.Minute))
	if n := tr.CheckAll(context.Background()); n != 0 {
		t.Errorf("CheckAll() before close = %d, want 0", n)
	}

	// Exactly at close_ts the market is closed
	clock.Set(t0.Add(30 * time.Minute))
	if n := tr.CheckAll(context.Background()); n != 1 {
		t.Errorf("CheckAll() at close = %d, want 1", n)
	}

	got := rec.states(k)
	want := []lifecycle.State{lifecycle.Opened, lifecycle.Closed}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("states = %v, want %v", got, want)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after close", tr.Len())
	}
}

func TestTracker_PausedThenClosed(t *testing.T) {
	clock := &fakeClock{now: t0}
	rec := newRecorder()
	tr := New(DefaultConfig(), rec, nil, WithClock(clock.Now))

	k := key("MKT-P")
	snap := openSnapshot(time.Hour)
	snap.IsDeactivated = true
	tr.Track(k, snap)

	clock.Set(t0.Add(2 * time.Hour))
	tr.CheckAll(context.Background())

	got := rec.states(k)
	if len(got) != 2 || got[0] != lifecycle.Paused || got[1] != lifecycle.Closed {
		t.Errorf("states = %v, want [paused closed]", got)
	}
}

func TestTracker_ObserveDoesNotEmit(t *testing.T) {
	clock := &fakeClock{now: t0}
	rec := newRecorder()
	tr := New(DefaultConfig(), rec, nil, WithClock(clock.Now))

	k := key("MKT-O")
	tr.Observe(k, openSnapshot(time.Minute))
	if got := rec.states(k); len(got) != 0 {
		t.Errorf("Observe emitted %v", got)
	}

	clock.Set(t0.Add(time.Minute))
	tr.CheckAll(context.Background())

	if got := rec.states(k); len(got) != 1 || got[0] != lifecycle.Closed {
		t.Errorf("states = %v, want [closed]", got)
	}
}

func TestTracker_NewSnapshotReplacesOld(t *testing.T) {
	clock := &fakeClock{now: t0}
	rec := newRecorder()
	tr := New(DefaultConfig(), rec, nil, WithClock(clock.Now))

	k := key("MKT-R")
	tr.Track(k, openSnapshot(time.Minute))

	// Close moved later before the old close elapsed
	tr.Observe(k, openSnapshot(time.Hour))

	clock.Set(t0.Add(5 * time.Minute))
	if n := tr.CheckAll(context.Background()); n != 0 {
		t.Errorf("CheckAll() = %d, want 0 with the newer snapshot", n)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestTracker_TerminalNotTracked(t *testing.T) {
	det := t0.Add(-time.Minute)
	settledTS := t0.Add(-time.Second)
	result := "yes"

	tests := []struct {
		name string
		snap lifecycle.Snapshot
		want lifecycle.State
	}{
		{"closed", openSnapshot(-time.Minute), lifecycle.Closed},
		{"determined", lifecycle.Snapshot{OpenTS: t0.Add(-time.Hour), CloseTS: t0.Add(time.Hour), DeterminationTS: &det, Result: &result}, lifecycle.Determined},
		{"settled", lifecycle.Snapshot{OpenTS: t0.Add(-time.Hour), CloseTS: t0.Add(time.Hour), DeterminationTS: &det, SettledTS: &settledTS, Result: &result}, lifecycle.Settled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(DefaultConfig(), nil, nil, WithClock(func() time.Time { return t0 }))

			// A tracked open market that then arrives in a final state is dropped
			k := key("MKT-" + tt.name)
			tr.Track(k, openSnapshot(time.Hour))
			update, err := tr.Track(k, tt.snap)
			if err != nil {
				t.Fatalf("Track() error = %v", err)
			}
			if update.State != tt.want {
				t.Errorf("State = %v, want %v", update.State, tt.want)
			}
			if tr.Len() != 0 {
				t.Errorf("Len() = %d, want 0", tr.Len())
			}
			if tr.Stats().Dropped != 1 {
				t.Errorf("Dropped = %d, want 1", tr.Stats().Dropped)
			}
		})
	}
}

func TestTracker_Forget(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, WithClock(func() time.Time { return t0 }))
	k := key("MKT-F")
	tr.Observe(k, openSnapshot(time.Hour))

	if !tr.Forget(k) {
		t.Error("Forget() = false, want true")
	}
	if tr.Forget(k) {
		t.Error("second Forget() = true, want false")
	}
}

func TestTracker_HandlerError(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("downstream closed")
	tr := New(DefaultConfig(), rec, nil, WithClock(func() time.Time { return t0 }))

	if _, err := tr.Track(key("MKT-E"), openSnapshot(time.Hour)); err == nil {
		t.Error("Track() error = nil, want handler error")
	}
	if tr.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", tr.Stats().Errors)
	}
}

func TestTracker_CheckAllManyMarkets(t *testing.T) {
	clock := &fakeClock{now: t0}
	var count int64
	var mu sync.Mutex
	handler := UpdateHandlerFunc(func(subscription.Key, lifecycle.Update) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	tr := New(Config{Interval: time.Hour, Concurrency: 4}, handler, nil, WithClock(clock.Now))
	for i := 0; i < 50; i++ {
		k := key("MKT-" + string(rune('A'+i%26)) + string(rune('a'+i/26)))
		tr.Observe(k, openSnapshot(time.Duration(i+1)*time.Minute))
	}

	clock.Set(t0.Add(25 * time.Minute))
	if n := tr.CheckAll(context.Background()); n != 25 {
		t.Errorf("CheckAll() = %d, want 25", n)
	}
	if tr.Len() != 25 {
		t.Errorf("Len() = %d, want 25", tr.Len())
	}
	if count != 25 {
		t.Errorf("handler calls = %d, want 25", count)
	}
}

func TestTracker_StartStop(t *testing.T) {
	clock := &fakeClock{now: t0}
	emitted := make(chan lifecycle.Update, 1)
	handler := UpdateHandlerFunc(func(_ subscription.Key, u lifecycle.Update) error {
		emitted <- u
		return nil
	})

	tr := New(Config{Interval: 10 * time.Millisecond, Concurrency: 2}, handler, nil, WithClock(clock.Now))
	tr.Observe(key("MKT-S"), openSnapshot(time.Minute))

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	clock.Set(t0.Add(time.Minute))

	select {
	case u := <-emitted:
		if u.State != lifecycle.Closed {
			t.Errorf("State = %v, want closed", u.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for tracker to emit")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := tr.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
