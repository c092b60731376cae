package stream

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/drdray1/ex-coinbase/internal/events"
)

// Subscribers is the registry of event sinks attached to a connection.
// Sinks are held by reference only; a sink that signals termination via
// its done channel is removed automatically.
type Subscribers struct {
	logger *slog.Logger

	mu    sync.Mutex
	sinks map[uuid.UUID]*sink
}

type sink struct {
	ch   chan<- events.Event
	stop chan struct{}
}

// NewSubscribers creates an empty registry.
func NewSubscribers(logger *slog.Logger) *Subscribers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscribers{
		logger: logger,
		sinks:  make(map[uuid.UUID]*sink),
	}
}

// Add registers ch and returns its id. If done is non-nil, the sink is
// removed automatically once done fires; pass nil for sinks that are only
// removed explicitly.
func (s *Subscribers) Add(ch chan<- events.Event, done <-chan struct{}) uuid.UUID {
	id := uuid.New()
	snk := &sink{ch: ch, stop: make(chan struct{})}

	s.mu.Lock()
	s.sinks[id] = snk
	s.mu.Unlock()

	if done != nil {
		go func() {
			select {
			case <-done:
				s.logger.Debug("subscriber terminated, removing", "subscriber", id)
				s.Remove(id)
			case <-snk.stop:
			}
		}()
	}

	return id
}

// Remove deregisters a sink. Removing an unknown id is a no-op.
func (s *Subscribers) Remove(id uuid.UUID) {
	s.mu.Lock()
	snk, ok := s.sinks[id]
	if ok {
		delete(s.sinks, id)
	}
	s.mu.Unlock()

	if ok {
		close(snk.stop)
	}
}

// Broadcast delivers ev to every registered sink, fire-and-forget: a full
// sink drops the event rather than blocking delivery to the others.
func (s *Subscribers) Broadcast(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, snk := range s.sinks {
		select {
		case snk.ch <- ev:
		default:
			s.logger.Debug("subscriber not keeping up, dropping event", "subscriber", id)
		}
	}
}

// Count returns the number of registered sinks.
func (s *Subscribers) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinks)
}
