// Package orderbook rebuilds a market's resting book from the
// orderbook_delta channel: a full snapshot followed by sequenced deltas.
//
// Prices are internal hundred-thousandths (see model.DollarsToInternal).
// Both sides are bids; the YES ask is implied by the best NO bid.
package orderbook
