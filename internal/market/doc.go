// Package market implements the Market Registry component.
//
// The Market Registry:
//   - Owns every Series, Event and Market, keyed by ticker
//   - Rejects a child whose parent is not registered
//   - Treats entries as immutable once registered
//   - Answers hierarchy queries (series frequency, event exclusivity) by index lookup
//   - Loads a YAML catalog at startup
package market
