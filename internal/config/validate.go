package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.Timescale.validate("database.timescale"); err != nil {
		return err
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"router.orderbook_buffer_size", c.Router.OrderbookBufferSize},
		{"router.ticker_buffer_size", c.Router.TickerBufferSize},
		{"router.trade_buffer_size", c.Router.TradeBufferSize},
		{"router.fill_buffer_size", c.Router.FillBufferSize},
		{"router.lifecycle_buffer_size", c.Router.LifecycleBufferSize},
		{"writers.batch_size", c.Writers.BatchSize},
		{"tracker.concurrency", c.Tracker.Concurrency},
	} {
		if f.v < 1 {
			return fmt.Errorf("%s must be >= 1", f.name)
		}
	}

	if c.Writers.FlushInterval <= 0 {
		return errors.New("writers.flush_interval must be positive")
	}
	if c.Tracker.Interval <= 0 {
		return errors.New("tracker.interval must be positive")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
