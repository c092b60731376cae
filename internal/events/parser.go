package events

import (
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the outer shape shared by all inbound frames.
type envelope struct {
	Channel     string            `json:"channel"`
	Type        string            `json:"type"`
	ClientID    string            `json:"client_id"`
	Timestamp   string            `json:"timestamp"`
	SequenceNum int64             `json:"sequence_num"`
	Message     string            `json:"message"`
	Reason      string            `json:"reason"`
	Events      []json.RawMessage `json:"events"`
}

// heartbeatWire is the sub-event shape on the heartbeats channel.
type heartbeatWire struct {
	CurrentTime string `json:"current_time"`
	Counter     uint64 `json:"heartbeat_counter"`
}

// userEventWire is the sub-event shape on the user channel.
type userEventWire struct {
	Type   string            `json:"type"`
	Orders []json.RawMessage `json:"orders"`
	Order  json.RawMessage   `json:"order"`
}

// orderWire is a single order object on the user channel.
type orderWire struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	ProductID     string `json:"product_id"`
	Status        string `json:"status"`
	Side          string `json:"order_side"`
	OrderType     string `json:"order_type"`
	CumulativeQty string `json:"cumulative_quantity"`
	LeavesQty     string `json:"leaves_quantity"`
	AvgPrice      string `json:"avg_price"`
	LimitPrice    string `json:"limit_price"`
	CreationTime  string `json:"creation_time"`
}

// level2Wire is the sub-event shape on the level2 channel.
type level2Wire struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Updates   []struct {
		Side        string `json:"side"`
		PriceLevel  string `json:"price_level"`
		NewQuantity string `json:"new_quantity"`
	} `json:"updates"`
}

// tickerWire is the sub-event shape on the ticker channels.
type tickerWire struct {
	Type    string           `json:"type"`
	Tickers []map[string]any `json:"tickers"`
}

// tradesWire is the sub-event shape on the market_trades channel.
type tradesWire struct {
	Type   string           `json:"type"`
	Trades []map[string]any `json:"trades"`
}

// statusNames maps venue order status codes to client vocabulary.
// Unrecognized codes are lower-cased as-is.
var statusNames = map[string]string{
	"FILLED":        "filled",
	"PENDING":       "submitted",
	"OPEN":          "submitted",
	"CANCELLED":     "cancelled",
	"EXPIRED":       "expired",
	"FAILED":        "rejected",
	"CANCEL_QUEUED": "cancelling",
}

func normalizeStatus(code string) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return strings.ToLower(code)
}

// Parse decodes a raw frame into a typed Event. A returned error means
// the frame should be dropped; the connection is unaffected either way.
func Parse(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	// Error and ack frames carry a type instead of a channel.
	switch env.Type {
	case "error":
		return ServerError{Message: errorMessage(env)}, nil
	case "subscriptions":
		return SubscriptionsAck{Raw: json.RawMessage(data)}, nil
	}

	switch env.Channel {
	case ChannelUser:
		return parseUser(env)
	case ChannelHeartbeats:
		return parseHeartbeat(env)
	case ChannelLevel2, channelLevel2Data:
		return parseLevel2(env)
	case ChannelTicker:
		tickers, err := parseTickers(env)
		if err != nil {
			return nil, err
		}
		return TickerEvent{Channel: ChannelTicker, Tickers: tickers}, nil
	case ChannelTickerBatch:
		tickers, err := parseTickers(env)
		if err != nil {
			return nil, err
		}
		return TickerBatchEvent{Channel: ChannelTickerBatch, Tickers: tickers}, nil
	case ChannelMarketTrades:
		return parseMarketTrades(env)
	case "":
		return nil, fmt.Errorf("unknown message format")
	default:
		return nil, fmt.Errorf("unknown channel %q", env.Channel)
	}
}

func errorMessage(env envelope) string {
	if env.Message != "" {
		return env.Message
	}
	if env.Reason != "" {
		return env.Reason
	}
	return "Unknown error"
}

func parseHeartbeat(env envelope) (Event, error) {
	hb := Heartbeat{}
	if len(env.Events) > 0 {
		var w heartbeatWire
		if err := json.Unmarshal(env.Events[0], &w); err != nil {
			return nil, fmt.Errorf("parse heartbeat: %w", err)
		}
		hb.CurrentTime = w.CurrentTime
		hb.Counter = w.Counter
	}
	return hb, nil
}

func parseUser(env envelope) (Event, error) {
	ev := UserOrderEvent{
		Channel:     ChannelUser,
		ClientID:    env.ClientID,
		Timestamp:   env.Timestamp,
		SequenceNum: env.SequenceNum,
	}

	for _, raw := range env.Events {
		var w userEventWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("parse user event: %w", err)
		}

		switch {
		case len(w.Orders) > 0:
			for _, o := range w.Orders {
				upd, err := parseOrder(w.Type, o)
				if err != nil {
					return nil, err
				}
				ev.Updates = append(ev.Updates, upd)
			}
		case len(w.Order) > 0:
			upd, err := parseOrder(w.Type, w.Order)
			if err != nil {
				return nil, err
			}
			ev.Updates = append(ev.Updates, upd)
		default:
			// Minimal payloads carry the order fields directly on the
			// sub-event.
			upd, err := parseOrder(w.Type, raw)
			if err != nil {
				return nil, err
			}
			ev.Updates = append(ev.Updates, upd)
		}
	}

	return ev, nil
}

func parseOrder(eventType string, raw json.RawMessage) (OrderUpdate, error) {
	var w orderWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return OrderUpdate{}, fmt.Errorf("parse order: %w", err)
	}
	return OrderUpdate{
		Type:          eventType,
		OrderID:       w.OrderID,
		ClientOrderID: w.ClientOrderID,
		ProductID:     w.ProductID,
		Status:        normalizeStatus(w.Status),
		Side:          w.Side,
		OrderType:     w.OrderType,
		CumulativeQty: w.CumulativeQty,
		LeavesQty:     w.LeavesQty,
		AvgPrice:      w.AvgPrice,
		LimitPrice:    w.LimitPrice,
		CreationTime:  w.CreationTime,
	}, nil
}

func parseLevel2(env envelope) (Event, error) {
	ev := Level2Event{Channel: ChannelLevel2}
	if len(env.Events) == 0 {
		return ev, nil
	}

	var w level2Wire
	if err := json.Unmarshal(env.Events[0], &w); err != nil {
		return nil, fmt.Errorf("parse level2 event: %w", err)
	}
	ev.ProductID = w.ProductID
	for _, u := range w.Updates {
		ev.Updates = append(ev.Updates, Level2Update{
			Side:        u.Side,
			PriceLevel:  u.PriceLevel,
			NewQuantity: u.NewQuantity,
		})
	}
	return ev, nil
}

// parseTickers collects tickers across all sub-events.
func parseTickers(env envelope) ([]map[string]any, error) {
	var tickers []map[string]any
	for _, raw := range env.Events {
		var w tickerWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("parse ticker event: %w", err)
		}
		tickers = append(tickers, w.Tickers...)
	}
	return tickers, nil
}

func parseMarketTrades(env envelope) (Event, error) {
	ev := MarketTradesEvent{Channel: ChannelMarketTrades}
	if len(env.Events) == 0 {
		return ev, nil
	}

	var w tradesWire
	if err := json.Unmarshal(env.Events[0], &w); err != nil {
		return nil, fmt.Errorf("parse market trades event: %w", err)
	}
	ev.Trades = w.Trades
	return ev, nil
}
