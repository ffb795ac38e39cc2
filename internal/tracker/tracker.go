package tracker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/subscription"
)

// UpdateHandler receives lifecycle updates.
type UpdateHandler interface {
	HandleUpdate(key subscription.Key, update lifecycle.Update) error
}

// UpdateHandlerFunc is a function adapter for UpdateHandler.
type UpdateHandlerFunc func(subscription.Key, lifecycle.Update) error

func (f UpdateHandlerFunc) HandleUpdate(key subscription.Key, u lifecycle.Update) error {
	return f(key, u)
}

// Config holds tracker configuration.
type Config struct {
	Interval    time.Duration // Re-classification interval (default: 1m)
	Concurrency int           // Max concurrent classifications (default: 16)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		Concurrency: 16,
	}
}

// Stats contains tracker counters.
type Stats struct {
	Tracked int
	Checks  int64
	Emitted int64
	Dropped int64
	Errors  int64
}

type entry struct {
	snap    lifecycle.Snapshot
	version uint64
	last    lifecycle.State
}

// Tracker holds the latest snapshot per market and emits state changes.
type Tracker struct {
	cfg     Config
	handler UpdateHandler
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	markets map[subscription.Key]*entry
	version uint64

	checks  atomic.Int64
	emitted atomic.Int64
	dropped atomic.Int64
	errors  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the classification clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a new Tracker. handler may be nil.
func New(cfg Config, handler UpdateHandler, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	t := &Tracker{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		markets: make(map[subscription.Key]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records snap as the latest snapshot for key and emits its
// classification.
func (t *Tracker) Track(key subscription.Key, snap lifecycle.Snapshot) (lifecycle.Update, error) {
	update := lifecycle.Classify(snap, t.now())
	t.record(key, snap, update.State)
	return update, t.emit(key, update)
}

// Observe records snap without emitting. The caller has already delivered
// its classification. Observe satisfies router.SnapshotObserver.
func (t *Tracker) Observe(key subscription.Key, snap lifecycle.Snapshot) {
	update := lifecycle.Classify(snap, t.now())
	t.record(key, snap, update.State)
}

func (t *Tracker) record(key subscription.Key, snap lifecycle.Snapshot, state lifecycle.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if settled(state) {
		if _, ok := t.markets[key]; ok {
			delete(t.markets, key)
			t.dropped.Add(1)
		}
		return
	}

	t.version++
	t.markets[key] = &entry{snap: snap, version: t.version, last: state}
}

// Forget stops tracking key. Returns false if it was not tracked.
func (t *Tracker) Forget(key subscription.Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.markets[key]; !ok {
		return false
	}
	delete(t.markets, key)
	return true
}

// Len returns the number of tracked markets.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.markets)
}

// Stats returns tracker counters.
func (t *Tracker) Stats() Stats {
	return Stats{
		Tracked: t.Len(),
		Checks:  t.checks.Load(),
		Emitted: t.emitted.Load(),
		Dropped: t.dropped.Load(),
		Errors:  t.errors.Load(),
	}
}

// Start begins the re-classification loop.
func (t *Tracker) Start(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.run()

	t.logger.Info("lifecycle tracker started",
		"interval", t.cfg.Interval,
		"concurrency", t.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the tracker.
func (t *Tracker) Stop(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("lifecycle tracker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.CheckAll(t.ctx)
		}
	}
}

type pending struct {
	key     subscription.Key
	snap    lifecycle.Snapshot
	version uint64
}

// CheckAll re-classifies every tracked market and emits the ones whose
// state changed. Returns the number of updates emitted.
func (t *Tracker) CheckAll(ctx context.Context) int {
	start := time.Now()

	t.mu.Lock()
	work := make([]pending, 0, len(t.markets))
	for key, e := range t.markets {
		work = append(work, pending{key: key, snap: e.snap, version: e.version})
	}
	t.mu.Unlock()

	if len(work) == 0 {
		t.logger.Debug("no markets to check")
		return 0
	}

	now := t.now()
	var emitted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)

	for _, p := range work {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if t.checkOne(p, now) {
				emitted.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	t.checks.Add(1)
	t.logger.Debug("check cycle complete",
		"markets", len(work),
		"emitted", emitted.Load(),
		"duration", time.Since(start),
	)
	return int(emitted.Load())
}

// checkOne classifies one market and emits on a state change.
func (t *Tracker) checkOne(p pending, now time.Time) bool {
	update := lifecycle.Classify(p.snap, now)

	t.mu.Lock()
	e, ok := t.markets[p.key]
	if !ok || e.version != p.version || e.last == update.State {
		// Forgotten, superseded by a newer snapshot, or unchanged
		t.mu.Unlock()
		return false
	}
	e.last = update.State
	if settled(update.State) {
		delete(t.markets, p.key)
		t.dropped.Add(1)
	}
	t.mu.Unlock()

	if err := t.emit(p.key, update); err != nil {
		t.logger.Warn("failed to emit lifecycle update",
			"key", p.key.String(),
			"state", update.State.String(),
			"error", err,
		)
	}
	return true
}

func (t *Tracker) emit(key subscription.Key, update lifecycle.Update) error {
	t.emitted.Add(1)
	if t.handler == nil {
		return nil
	}
	if err := t.handler.HandleUpdate(key, update); err != nil {
		t.errors.Add(1)
		return err
	}
	return nil
}

// settled reports whether elapsed time can no longer change state.
func settled(state lifecycle.State) bool {
	return state == lifecycle.Closed || state.Terminal()
}
