package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultOrderbookBufferSize = 5000
	DefaultTickerBufferSize    = 1000
	DefaultTradeBufferSize     = 1000
	DefaultFillBufferSize      = 1000
	DefaultLifecycleBufferSize = 1000
	DefaultBatchSize           = 1000
	DefaultFlushInterval       = 1 * time.Second
	DefaultTrackerInterval     = 1 * time.Minute
	DefaultTrackerConcurrency  = 16
)

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	applyDBDefaults(&c.Database.Timescale)

	// Router defaults
	setDefault(&c.Router.OrderbookBufferSize, DefaultOrderbookBufferSize)
	setDefault(&c.Router.TickerBufferSize, DefaultTickerBufferSize)
	setDefault(&c.Router.TradeBufferSize, DefaultTradeBufferSize)
	setDefault(&c.Router.FillBufferSize, DefaultFillBufferSize)
	setDefault(&c.Router.LifecycleBufferSize, DefaultLifecycleBufferSize)

	// Writers defaults
	setDefault(&c.Writers.BatchSize, DefaultBatchSize)
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}

	// Tracker defaults
	if c.Tracker.Interval == 0 {
		c.Tracker.Interval = DefaultTrackerInterval
	}
	setDefault(&c.Tracker.Concurrency, DefaultTrackerConcurrency)
}

func applyDBDefaults(db *DBConfig) {
	setDefault(&db.Port, DefaultDBPort)
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	setDefault(&db.MaxConns, DefaultMaxConns)
	setDefault(&db.MinConns, DefaultMinConns)
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
