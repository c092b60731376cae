package writer

import (
	"time"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the initial capacity of the input buffer.
	BufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     1000,
		FlushInterval: 1 * time.Second,
		BufferSize:    10000,
	}
}

// tickerRow represents a row for the tickers table.
type tickerRow struct {
	ReceivedAt int64 // Microseconds
	ProductID  string
	Price      float64
	BestBid    float64
	BestAsk    float64
	Volume24h  float64
}

// tradeRow represents a row for the market_trades table.
type tradeRow struct {
	TradeID    string
	ExchangeTs int64 // Microseconds
	ReceivedAt int64 // Microseconds
	ProductID  string
	Price      float64
	Size       float64
	Side       string // "BUY" or "SELL" as reported by the venue
}

// orderRow represents a row for the order_updates table.
type orderRow struct {
	ReceivedAt    int64 // Microseconds
	OrderID       string
	ClientOrderID string
	ProductID     string
	Status        string
	Side          string
	CumulativeQty float64
	LeavesQty     float64
	AvgPrice      float64
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
