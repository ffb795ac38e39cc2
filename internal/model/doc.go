// Package model defines the value objects and channel payloads shared across predictors-stream.
//
// The Series -> Event -> Market hierarchy references parents by ticker; the
// market registry owns the instances and answers attribute lookups.
//
// Conventions:
//   - Prices on the wire: dollar strings ("0.52", "0.5250" for subpenny)
//   - Prices internally: integer hundred-thousandths (0-100,000 = $0.00-$1.00)
//   - Timestamps: time.Time, UTC
//   - IDs: string for tickers, uuid.UUID for trade and order IDs
package model
