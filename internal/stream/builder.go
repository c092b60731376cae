package stream

import (
	"fmt"
	"time"

	"github.com/drdray1/ex-coinbase/internal/auth"
	"github.com/drdray1/ex-coinbase/internal/events"
)

// messageBuilder builds the wire frames for one connection kind. The
// engine is agnostic to whether subscribes carry credentials.
type messageBuilder interface {
	Subscribe(channel string, products []string) ([]byte, error)
	Unsubscribe(channel string, products []string) ([]byte, error)
}

// marketMessages builds plain frames for the market-data connection.
type marketMessages struct{}

func (marketMessages) Subscribe(channel string, products []string) ([]byte, error) {
	return encodeSubscribe(channel, products, "")
}

func (marketMessages) Unsubscribe(channel string, products []string) ([]byte, error) {
	return encodeUnsubscribe(channel, products)
}

// userMessages builds frames for the authenticated connection: subscribes
// to the user channel carry a freshly generated token. Heartbeat
// subscribes need no credential.
type userMessages struct {
	creds *auth.Credentials
	ttl   time.Duration
}

func (b userMessages) Subscribe(channel string, products []string) ([]byte, error) {
	if channel != events.ChannelUser {
		return encodeSubscribe(channel, products, "")
	}

	token, err := b.creds.Generate(b.ttl, products)
	if err != nil {
		return nil, fmt.Errorf("generate credential: %w", err)
	}
	return encodeSubscribe(channel, products, token)
}

func (b userMessages) Unsubscribe(channel string, products []string) ([]byte, error) {
	return encodeUnsubscribe(channel, products)
}
