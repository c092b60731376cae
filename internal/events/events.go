package events

import "encoding/json"

// Channel names as used in subscribe messages and inbound frames.
const (
	ChannelUser         = "user"
	ChannelHeartbeats   = "heartbeats"
	ChannelLevel2       = "level2"
	ChannelTicker       = "ticker"
	ChannelTickerBatch  = "ticker_batch"
	ChannelMarketTrades = "market_trades"

	// channelLevel2Data is the wire name the server uses for level2 frames.
	channelLevel2Data = "l2_data"
)

// Event is implemented by every parsed inbound message.
type Event interface {
	event()
}

// Heartbeat is a keepalive frame. Fields are zero-valued when the frame
// carried no sub-events.
type Heartbeat struct {
	CurrentTime string
	Counter     uint64
}

// OrderUpdate describes one order within a UserOrderEvent. Status is
// normalized to lower-case client vocabulary (see normalizeStatus).
type OrderUpdate struct {
	Type          string // sub-event type: "snapshot" or "update"
	OrderID       string
	ClientOrderID string
	ProductID     string
	Status        string
	Side          string
	OrderType     string
	CumulativeQty string
	LeavesQty     string
	AvgPrice      string
	LimitPrice    string
	CreationTime  string
}

// UserOrderEvent carries order updates from the authenticated channel.
type UserOrderEvent struct {
	Channel     string
	ClientID    string
	Timestamp   string
	SequenceNum int64
	Updates     []OrderUpdate
}

// Level2Update is a single price-level change.
type Level2Update struct {
	Side        string
	PriceLevel  string
	NewQuantity string
}

// Level2Event carries order book updates for one product.
type Level2Event struct {
	Channel   string
	ProductID string
	Updates   []Level2Update
}

// TickerEvent carries ticker snapshots. Ticker payload fields vary by
// venue version, so individual tickers are kept as decoded maps.
type TickerEvent struct {
	Channel string
	Tickers []map[string]any
}

// TickerBatchEvent is the batched variant of TickerEvent.
type TickerBatchEvent struct {
	Channel string
	Tickers []map[string]any
}

// MarketTradesEvent carries executed trades.
type MarketTradesEvent struct {
	Channel string
	Trades  []map[string]any
}

// SubscriptionsAck acknowledges a subscribe/unsubscribe; passed through
// largely unparsed.
type SubscriptionsAck struct {
	Raw json.RawMessage
}

// ServerError is an error frame reported by the venue.
type ServerError struct {
	Message string
}

func (Heartbeat) event()         {}
func (UserOrderEvent) event()    {}
func (Level2Event) event()       {}
func (TickerEvent) event()       {}
func (TickerBatchEvent) event()  {}
func (MarketTradesEvent) event() {}
func (SubscriptionsAck) event()  {}
func (ServerError) event()       {}
