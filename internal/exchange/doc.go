// Package exchange identifies the exchange servers a subscription can target.
//
// Every exchange has a stable three-letter code used in dispatch keys and logs:
//   - KAL: Kalshi
package exchange
