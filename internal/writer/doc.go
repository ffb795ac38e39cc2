// Package writer implements batch writers that persist router taps.
//
// Writers:
//   - Lifecycle writer (market_lifecycles)
//   - Trade writer (trades)
//   - Ticker writer (tickers)
//   - Orderbook writer (orderbook_deltas, orderbook_snapshots)
//
// All writers use append-only semantics (never update, only insert).
// Prices are stored as integer hundred-thousandths (0-100,000 = $0.00-$1.00) for 5-digit sub-penny precision.
package writer
