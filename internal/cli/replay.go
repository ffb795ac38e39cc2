package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/predictors-stream/internal/config"
	"github.com/rickgao/predictors-stream/internal/database"
	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/market"
	"github.com/rickgao/predictors-stream/internal/router"
	"github.com/rickgao/predictors-stream/internal/subscription"
	"github.com/rickgao/predictors-stream/internal/tracker"
	"github.com/rickgao/predictors-stream/internal/version"
	"github.com/rickgao/predictors-stream/internal/writer"
)

const stopTimeout = 10 * time.Second

type replayOptions struct {
	configPath string
	file       string
	dryRun     bool
	migrate    bool
}

func newReplayCommand(ro *rootOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded stream events",
		Long: `Replay a YAML file of recorded payloads through the router, the lifecycle
tracker and the batch writers, then print each market's lifecycle timeline.

Each event's "at" time drives the clock, so markets whose close time passes
between events are emitted as closed without a new snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runReplay(ctx, cmd.OutOrStdout(), ro.logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (required unless --dry-run)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Replay file (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Do not connect to the database; rows are discarded")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Apply schema migrations before replaying")
	cmd.MarkFlagRequired("file")

	return cmd
}

// replayClock is the clock shared by the router and tracker. Until the
// first Set it follows wall time.
type replayClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		return time.Now().UTC()
	}
	return c.now
}

func (c *replayClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

// component is anything with the Start/Stop lifecycle.
type component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// statser is a writer that reports metrics.
type statser interface {
	component
	Stats() writer.WriterMetrics
}

func loadReplayConfig(opts *replayOptions) (*config.Config, error) {
	switch {
	case opts.configPath == "" && opts.dryRun:
		cfg := &config.Config{Instance: config.InstanceConfig{ID: "replay"}}
		cfg.ApplyDefaults()
		return cfg, nil
	case opts.configPath == "":
		return nil, fmt.Errorf("--config is required unless --dry-run is set")
	case opts.dryRun:
		// Database settings are not needed
		return config.LoadWithDefaults(opts.configPath)
	}
	return config.LoadAndValidate(opts.configPath)
}

func runReplay(ctx context.Context, out io.Writer, logger *slog.Logger, opts *replayOptions) error {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := loadReplayConfig(opts)
	if err != nil {
		return err
	}
	rf, err := loadReplayFile(opts.file)
	if err != nil {
		return err
	}

	logger.Info("starting replay",
		append(version.Info(), "instance_id", cfg.Instance.ID, "events", len(rf.Events))...,
	)

	registry := market.NewRegistry(logger)
	if cfg.Catalog.Path != "" {
		if err := registry.LoadCatalog(cfg.Catalog.Path); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}
	_, _, catalogMarkets := registry.Counts()

	var db writer.BatchSender
	if !opts.dryRun {
		logger.Info("connecting to database",
			"host", cfg.Database.Timescale.Host,
			"port", cfg.Database.Timescale.Port,
			"database", cfg.Database.Timescale.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Timescale)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if opts.migrate {
			applied, err := database.RunMigrations(ctx, pool)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("migrations applied", "files", applied)
		}
		db = pool
	}

	clock := &replayClock{}

	// The tracker emits through the router it observes
	var r *router.Router
	tr := tracker.New(
		tracker.Config{Interval: cfg.Tracker.Interval, Concurrency: cfg.Tracker.Concurrency},
		tracker.UpdateHandlerFunc(func(key subscription.Key, u lifecycle.Update) error {
			return r.Deliver(key, u, clock.Now())
		}),
		logger,
		tracker.WithClock(clock.Now),
	)
	r = router.NewRouter(routerConfig(cfg.Router), nil, logger,
		router.WithClock(clock.Now),
		router.WithSnapshotObserver(tr),
	)

	wcfg := writer.WriterConfig{BatchSize: cfg.Writers.BatchSize, FlushInterval: cfg.Writers.FlushInterval}
	writers := map[string]statser{
		"lifecycle": writer.NewLifecycleWriter(wcfg, router.Tap(r, subscription.MarketLifecycles), db, logger),
		"trade":     writer.NewTradeWriter(wcfg, router.Tap(r, subscription.Trades), db, logger),
		"ticker":    writer.NewTickerWriter(wcfg, router.Tap(r, subscription.Tickers), db, logger),
		"orderbook": writer.NewOrderbookWriter(wcfg, router.Tap(r, subscription.OrderbookDeltas), db, logger),
	}

	// One typed subscription per market for the printed timeline
	timelines := make(map[subscription.Key]*router.GrowableBuffer[router.Message[lifecycle.Update]])
	for _, ev := range rf.Events {
		if ev.Lifecycle == nil || ev.Market == "" {
			continue
		}
		sub := subscription.New(defaultExchange(ev.Exchange), ev.Market, subscription.MarketLifecycles)
		timelines[sub.Key()] = router.Subscribe(r, sub)
	}

	components := []component{r, tr}
	for _, w := range writers {
		components = append(components, w)
	}
	for _, c := range components {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("start component: %w", err)
		}
	}

	published, rejected := 0, 0
	for i, ev := range rf.Events {
		key, payload, err := ev.envelope()
		if err != nil {
			logger.Warn("skipping replay event", "index", i, "error", err)
			rejected++
			continue
		}

		if !ev.At.IsZero() {
			clock.Set(ev.At)
			tr.CheckAll(ctx)
		}

		if catalogMarkets > 0 {
			if _, ok := registry.Market(key.Market); !ok {
				logger.Warn("market not in catalog", "market", key.Market)
			}
		}

		if err := r.Publish(key, payload, clock.Now()); err != nil {
			logger.Warn("failed to publish", "index", i, "key", key.String(), "error", err)
			rejected++
			continue
		}
		published++
	}

	if rf.Until != nil {
		clock.Set(*rf.Until)
		tr.CheckAll(ctx)
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	// Upstream first: nothing may publish into a closed buffer
	if err := tr.Stop(stopCtx); err != nil {
		logger.Warn("tracker stop failed", "error", err)
	}
	r.Stop(stopCtx)

	g, gctx := errgroup.WithContext(stopCtx)
	for _, w := range writers {
		g.Go(func() error {
			return w.Stop(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stop writers: %w", err)
	}

	printTimelines(out, timelines)
	return printSummary(out, published, rejected, r.Stats(), tr.Stats(), writers)
}

func routerConfig(c config.RouterConfig) router.RouterConfig {
	return router.RouterConfig{
		OrderbookBufferSize: c.OrderbookBufferSize,
		TickerBufferSize:    c.TickerBufferSize,
		TradeBufferSize:     c.TradeBufferSize,
		FillBufferSize:      c.FillBufferSize,
		LifecycleBufferSize: c.LifecycleBufferSize,
	}
}

func printTimelines(out io.Writer, timelines map[subscription.Key]*router.GrowableBuffer[router.Message[lifecycle.Update]]) {
	keys := make([]subscription.Key, 0, len(timelines))
	for k := range timelines {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, k := range keys {
		for _, msg := range timelines[k].DrainTo(0) {
			fmt.Fprintf(out, "%s\t%s\n", k.PredictionMarket().ID(), msg.Event)
		}
	}
}

func printSummary(out io.Writer, published, rejected int, rs router.RouterStats, ts tracker.Stats, writers map[string]statser) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "events\tpublished=%d\trejected=%d\n", published, rejected)
	fmt.Fprintf(w, "router\trouted=%d\tmismatched=%d\tunrouted=%d\n", rs.MessagesRouted, rs.PayloadMismatches, rs.Unrouted)
	fmt.Fprintf(w, "tracker\ttracked=%d\temitted=%d\tdropped=%d\n", ts.Tracked, ts.Emitted, ts.Dropped)

	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := writers[name].Stats()
		fmt.Fprintf(w, "writer %s\tinserts=%d\tconflicts=%d\terrors=%d\tdropped=%d\n",
			name, m.Inserts, m.Conflicts, m.Errors, m.Dropped)
	}

	return w.Flush()
}
