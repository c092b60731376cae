// Package writer implements batch recording of stream events to TimescaleDB.
//
// Writers:
//   - Ticker writer (tickers table)
//   - Trade writer (market_trades table)
//   - Order writer (order_updates table)
//
// All writers use append-only semantics (never update, only insert).
// A Recorder bridges a stream subscriber channel into the per-writer buffers.
package writer
