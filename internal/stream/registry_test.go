package stream

import (
	"reflect"
	"testing"
)

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()

	r.Add("ticker", []string{"BTC-USD"})
	r.Add("ticker", []string{"ETH-USD"})

	got := r.Products("ticker")
	want := []string{"BTC-USD", "ETH-USD"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Products = %v, want %v", got, want)
	}

	removed := r.Remove("ticker", []string{"BTC-USD"})
	if !reflect.DeepEqual(removed, []string{"BTC-USD"}) {
		t.Errorf("removed = %v", removed)
	}
	if got := r.Products("ticker"); !reflect.DeepEqual(got, []string{"ETH-USD"}) {
		t.Errorf("Products = %v, want [ETH-USD]", got)
	}

	removed = r.Remove("ticker", []string{"ETH-USD"})
	if !reflect.DeepEqual(removed, []string{"ETH-USD"}) {
		t.Errorf("removed = %v", removed)
	}
	if len(r.Channels()) != 0 {
		t.Errorf("channel entry should be gone, have %v", r.Channels())
	}
	if !r.Empty() {
		t.Error("registry should be empty")
	}
}

func TestRegistry_DuplicatesAndUnknowns(t *testing.T) {
	r := NewRegistry()

	r.Add("level2", []string{"BTC-USD", "BTC-USD"})
	if got := r.Products("level2"); len(got) != 1 {
		t.Errorf("duplicate add should dedupe, got %v", got)
	}

	if removed := r.Remove("level2", []string{"ETH-USD"}); removed != nil {
		t.Errorf("removing absent product should return nothing, got %v", removed)
	}
	if removed := r.Remove("nope", []string{"BTC-USD"}); removed != nil {
		t.Errorf("removing from absent channel should return nothing, got %v", removed)
	}
}

// No sequence of Add/Remove calls may leave a channel mapped to an empty
// set.
func TestRegistry_NoEmptySets(t *testing.T) {
	r := NewRegistry()

	ops := []struct {
		add      bool
		channel  string
		products []string
	}{
		{true, "ticker", []string{"BTC-USD"}},
		{true, "level2", []string{"BTC-USD", "ETH-USD"}},
		{false, "ticker", []string{"BTC-USD"}},
		{true, "ticker", nil},
		{false, "level2", []string{"ETH-USD", "BTC-USD"}},
		{true, "market_trades", []string{"SOL-USD"}},
		{false, "market_trades", []string{"SOL-USD", "SOL-USD"}},
	}

	for i, op := range ops {
		if op.add {
			r.Add(op.channel, op.products)
		} else {
			r.Remove(op.channel, op.products)
		}

		for ch, products := range r.Snapshot() {
			if len(products) == 0 {
				t.Fatalf("after op %d: channel %q has empty product set", i, ch)
			}
		}
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.Add("ticker", []string{"BTC-USD"})

	snap := r.Snapshot()
	snap["ticker"][0] = "mutated"

	if got := r.Products("ticker"); got[0] != "BTC-USD" {
		t.Error("Snapshot must copy, not alias")
	}
}
