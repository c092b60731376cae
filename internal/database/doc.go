// Package database provides connection pool management for TimescaleDB.
//
// The streamer records ticker, trade, and order-update events as
// time-series rows; TimescaleDB is the only store it talks to.
package database
