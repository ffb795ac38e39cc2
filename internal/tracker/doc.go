// Package tracker re-classifies market lifecycles as time passes.
//
// A market can move from opened or paused to closed with no new snapshot,
// purely because close_ts elapsed. The tracker keeps the latest snapshot of
// every live market, re-classifies them all on an interval, and emits an
// update whenever a market's state changes.
package tracker
