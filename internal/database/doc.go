// Package database provides the TimescaleDB connection pool and schema
// migrations for the stream writers.
//
// Tables (see migrations/):
//   - market_lifecycles: one row per emitted lifecycle state
//   - trades, tickers: public market activity
//   - orderbook_deltas, orderbook_snapshots: book reconstruction input
package database
