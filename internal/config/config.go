package config

import "time"

// Config is the root configuration for a predictors instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Database DatabaseConfig `yaml:"database"`
	Router   RouterConfig   `yaml:"router"`
	Writers  WritersConfig  `yaml:"writers"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DatabaseConfig holds the TimescaleDB connection for time-series data.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RouterConfig holds initial subscriber buffer sizes per channel.
type RouterConfig struct {
	OrderbookBufferSize int `yaml:"orderbook_buffer_size"`
	TickerBufferSize    int `yaml:"ticker_buffer_size"`
	TradeBufferSize     int `yaml:"trade_buffer_size"`
	FillBufferSize      int `yaml:"fill_buffer_size"`
	LifecycleBufferSize int `yaml:"lifecycle_buffer_size"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// TrackerConfig holds lifecycle tracker settings.
type TrackerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

// CatalogConfig points at the series/event/market catalog file.
type CatalogConfig struct {
	Path string `yaml:"path"` // optional
}
