package writer

import (
	"strconv"
	"time"

	"github.com/drdray1/ex-coinbase/internal/events"
)

// parseDecimal converts a decimal string field (e.g. "43210.57") to a
// float64. Empty or malformed values become 0.
func parseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseTimeMicros converts an RFC 3339 timestamp to microseconds since
// the epoch. Malformed values become 0.
func parseTimeMicros(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0
	}
	return t.UnixMicro()
}

// fieldStr extracts a string field from a decoded ticker or trade map.
func fieldStr(m map[string]any, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}

// tickerRows converts the tickers of a ticker or ticker_batch event.
func tickerRows(tickers []map[string]any, receivedAt time.Time) []tickerRow {
	rows := make([]tickerRow, 0, len(tickers))
	for _, t := range tickers {
		productID := fieldStr(t, "product_id")
		if productID == "" {
			continue
		}
		rows = append(rows, tickerRow{
			ReceivedAt: receivedAt.UnixMicro(),
			ProductID:  productID,
			Price:      parseDecimal(fieldStr(t, "price")),
			BestBid:    parseDecimal(fieldStr(t, "best_bid")),
			BestAsk:    parseDecimal(fieldStr(t, "best_ask")),
			Volume24h:  parseDecimal(fieldStr(t, "volume_24_h")),
		})
	}
	return rows
}

// tradeRows converts the trades of a market_trades event.
func tradeRows(trades []map[string]any, receivedAt time.Time) []tradeRow {
	rows := make([]tradeRow, 0, len(trades))
	for _, tr := range trades {
		tradeID := fieldStr(tr, "trade_id")
		if tradeID == "" {
			continue
		}
		rows = append(rows, tradeRow{
			TradeID:    tradeID,
			ExchangeTs: parseTimeMicros(fieldStr(tr, "time")),
			ReceivedAt: receivedAt.UnixMicro(),
			ProductID:  fieldStr(tr, "product_id"),
			Price:      parseDecimal(fieldStr(tr, "price")),
			Size:       parseDecimal(fieldStr(tr, "size")),
			Side:       fieldStr(tr, "side"),
		})
	}
	return rows
}

// orderRows converts the updates of a user order event.
func orderRows(updates []events.OrderUpdate, receivedAt time.Time) []orderRow {
	rows := make([]orderRow, 0, len(updates))
	for _, u := range updates {
		if u.OrderID == "" {
			continue
		}
		rows = append(rows, orderRow{
			ReceivedAt:    receivedAt.UnixMicro(),
			OrderID:       u.OrderID,
			ClientOrderID: u.ClientOrderID,
			ProductID:     u.ProductID,
			Status:        u.Status,
			Side:          u.Side,
			CumulativeQty: parseDecimal(u.CumulativeQty),
			LeavesQty:     parseDecimal(u.LeavesQty),
			AvgPrice:      parseDecimal(u.AvgPrice),
		})
	}
	return rows
}
