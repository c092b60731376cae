package stream

import (
	"testing"
	"time"

	"github.com/drdray1/ex-coinbase/internal/events"
)

func TestSubscribers_AddRemove(t *testing.T) {
	s := NewSubscribers(nil)

	ch := make(chan events.Event, 1)
	id := s.Add(ch, nil)

	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}

	s.Remove(id)
	if s.Count() != 0 {
		t.Fatalf("Count = %d after Remove, want 0", s.Count())
	}

	// Removing again is a no-op.
	s.Remove(id)
}

func TestSubscribers_AutoRemoveOnDone(t *testing.T) {
	s := NewSubscribers(nil)

	ch := make(chan events.Event, 1)
	done := make(chan struct{})
	s.Add(ch, done)

	close(done)

	deadline := time.Now().Add(2 * time.Second)
	for s.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("terminated subscriber was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubscribers_Broadcast(t *testing.T) {
	s := NewSubscribers(nil)

	ch1 := make(chan events.Event, 1)
	ch2 := make(chan events.Event, 1)
	s.Add(ch1, nil)
	s.Add(ch2, nil)

	ev := events.TickerEvent{Channel: events.ChannelTicker}
	s.Broadcast(ev)

	for i, ch := range []chan events.Event{ch1, ch2} {
		select {
		case got := <-ch:
			if _, ok := got.(events.TickerEvent); !ok {
				t.Errorf("sink %d: got %T", i, got)
			}
		default:
			t.Errorf("sink %d: no event delivered", i)
		}
	}
}

func TestSubscribers_SlowSinkDoesNotBlock(t *testing.T) {
	s := NewSubscribers(nil)

	full := make(chan events.Event) // unbuffered, never read
	healthy := make(chan events.Event, 1)
	s.Add(full, nil)
	s.Add(healthy, nil)

	delivered := make(chan struct{})
	go func() {
		s.Broadcast(events.TickerEvent{Channel: events.ChannelTicker})
		close(delivered)
	}()

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full sink")
	}

	select {
	case <-healthy:
	default:
		t.Error("healthy sink did not receive the event")
	}
}
