package stream

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeSubscribe_RoundTrip(t *testing.T) {
	data, err := encodeSubscribe("ticker", []string{"BTC-USD", "ETH-USD"}, "tok-123")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if msg.Type != "subscribe" {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Channel != "ticker" {
		t.Errorf("channel = %q", msg.Channel)
	}
	if !reflect.DeepEqual(msg.ProductIDs, []string{"BTC-USD", "ETH-USD"}) {
		t.Errorf("product_ids = %v", msg.ProductIDs)
	}
	if msg.JWT != "tok-123" {
		t.Errorf("jwt = %q", msg.JWT)
	}
}

func TestEncodeSubscribe_OmitsEmptyFields(t *testing.T) {
	data, err := encodeSubscribe("heartbeats", nil, "")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "product_ids") {
		t.Errorf("product_ids should be omitted when empty: %s", s)
	}
	if strings.Contains(s, "jwt") {
		t.Errorf("jwt should be omitted when empty: %s", s)
	}
}

func TestEncodeUnsubscribe(t *testing.T) {
	data, err := encodeUnsubscribe("level2", []string{"BTC-USD"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Type != "unsubscribe" || msg.Channel != "level2" {
		t.Errorf("decoded = %+v", msg)
	}
	if msg.JWT != "" {
		t.Errorf("unsubscribe must not carry a credential: %+v", msg)
	}
}
