package stream

import "encoding/json"

// Message is the wire shape of outbound subscribe/unsubscribe frames.
// ProductIDs is omitted when empty; JWT is present only on authenticated
// subscribes.
type Message struct {
	Type       string   `json:"type"`
	Channel    string   `json:"channel"`
	ProductIDs []string `json:"product_ids,omitempty"`
	JWT        string   `json:"jwt,omitempty"`
}

func encodeSubscribe(channel string, products []string, token string) ([]byte, error) {
	return json.Marshal(Message{
		Type:       "subscribe",
		Channel:    channel,
		ProductIDs: products,
		JWT:        token,
	})
}

func encodeUnsubscribe(channel string, products []string) ([]byte, error) {
	return json.Marshal(Message{
		Type:       "unsubscribe",
		Channel:    channel,
		ProductIDs: products,
	})
}
