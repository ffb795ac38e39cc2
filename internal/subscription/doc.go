// Package subscription binds an exchange, a market and a channel into one
// logical stream.
//
// A Channel value fixes the event type a consumer receives at compile time:
// a Subscription[model.Trade] can only be built from the Trades channel. Key
// is the untyped form used where heterogeneous streams meet (dispatch).
package subscription
