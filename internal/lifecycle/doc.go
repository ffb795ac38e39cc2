// Package lifecycle classifies a market's current phase from a market_lifecycle snapshot.
//
// Every snapshot is complete (never a delta) and is classified on its own.
// Precedence, first match wins:
//   - settled_ts present: Settled
//   - determination_ts present: Determined
//   - now >= close_ts: Closed
//   - is_deactivated: Paused
//   - otherwise: Opened
//
// Classification is pure and never fails. Because it depends on the current
// time, repeated classification of one snapshot may move from Opened to Closed.
package lifecycle
