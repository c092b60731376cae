package writer

import (
	"testing"
	"time"

	"github.com/drdray1/ex-coinbase/internal/events"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected float64
	}{
		{"integer", "43210", 43210},
		{"decimal", "43210.57", 43210.57},
		{"small", "0.00000057", 0.00000057},
		{"zero", "0", 0},
		{"empty string", "", 0},
		{"invalid", "invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseDecimal(tt.in)
			if result != tt.expected {
				t.Errorf("parseDecimal(%q) = %v, want %v", tt.in, result, tt.expected)
			}
		})
	}
}

func TestParseTimeMicros(t *testing.T) {
	got := parseTimeMicros("2026-02-14T12:30:45.123456Z")
	want := time.Date(2026, 2, 14, 12, 30, 45, 123456000, time.UTC).UnixMicro()
	if got != want {
		t.Errorf("parseTimeMicros() = %d, want %d", got, want)
	}

	if got := parseTimeMicros(""); got != 0 {
		t.Errorf("parseTimeMicros(\"\") = %d, want 0", got)
	}
	if got := parseTimeMicros("not-a-time"); got != 0 {
		t.Errorf("parseTimeMicros(invalid) = %d, want 0", got)
	}
}

func TestTickerRows(t *testing.T) {
	now := time.Now()
	tickers := []map[string]any{
		{
			"product_id":  "BTC-USD",
			"price":       "43210.57",
			"best_bid":    "43210.50",
			"best_ask":    "43210.60",
			"volume_24_h": "1250.5",
		},
		{"price": "1.0"}, // no product id, skipped
	}

	rows := tickerRows(tickers, now)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.ProductID != "BTC-USD" {
		t.Errorf("ProductID = %q", row.ProductID)
	}
	if row.Price != 43210.57 {
		t.Errorf("Price = %v", row.Price)
	}
	if row.BestBid != 43210.50 || row.BestAsk != 43210.60 {
		t.Errorf("BestBid/BestAsk = %v/%v", row.BestBid, row.BestAsk)
	}
	if row.Volume24h != 1250.5 {
		t.Errorf("Volume24h = %v", row.Volume24h)
	}
	if row.ReceivedAt != now.UnixMicro() {
		t.Errorf("ReceivedAt = %d", row.ReceivedAt)
	}
}

func TestTradeRows(t *testing.T) {
	now := time.Now()
	trades := []map[string]any{
		{
			"trade_id":   "t-100",
			"product_id": "ETH-USD",
			"price":      "2310.25",
			"size":       "0.5",
			"side":       "BUY",
			"time":       "2026-02-14T12:30:45Z",
		},
		{"product_id": "ETH-USD"}, // no trade id, skipped
	}

	rows := tradeRows(trades, now)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.TradeID != "t-100" || row.ProductID != "ETH-USD" {
		t.Errorf("TradeID/ProductID = %q/%q", row.TradeID, row.ProductID)
	}
	if row.Price != 2310.25 || row.Size != 0.5 {
		t.Errorf("Price/Size = %v/%v", row.Price, row.Size)
	}
	if row.Side != "BUY" {
		t.Errorf("Side = %q", row.Side)
	}
	if row.ExchangeTs == 0 {
		t.Error("ExchangeTs not parsed")
	}
}

func TestOrderRows(t *testing.T) {
	now := time.Now()
	updates := []events.OrderUpdate{
		{
			OrderID:       "ord-1",
			ClientOrderID: "cli-1",
			ProductID:     "BTC-USD",
			Status:        "filled",
			Side:          "BUY",
			CumulativeQty: "0.01",
			LeavesQty:     "0",
			AvgPrice:      "43000",
		},
		{Status: "submitted"}, // no order id, skipped
	}

	rows := orderRows(updates, now)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.OrderID != "ord-1" || row.Status != "filled" {
		t.Errorf("OrderID/Status = %q/%q", row.OrderID, row.Status)
	}
	if row.CumulativeQty != 0.01 || row.AvgPrice != 43000 {
		t.Errorf("CumulativeQty/AvgPrice = %v/%v", row.CumulativeQty, row.AvgPrice)
	}
}
