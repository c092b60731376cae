package stream

import (
	"errors"
	"time"

	"github.com/drdray1/ex-coinbase/internal/transport"
)

// Errors
var (
	ErrStopped        = errors.New("connection stopped")
	ErrAlreadyStarted = errors.New("connection already started")
)

// Status is the connection lifecycle state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

// Info is a point-in-time view of a connection.
type Info struct {
	Status      Status
	Channels    map[string][]string // channel -> subscribed product ids
	Subscribers int
}

// Config configures a Conn.
type Config struct {
	URL string // WebSocket URL for this connection kind

	// Reconnect policy: delay = min(base * 2^attempts, max), then
	// disconnected once attempts reach the maximum.
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int

	// Credential refresh (authenticated connections only). Tokens are
	// regenerated every TokenTTL - RefreshBuffer.
	TokenTTL      time.Duration
	RefreshBuffer time.Duration

	// StopGrace is how long Stop waits for the transport to flush the
	// best-effort unsubscribes before closing.
	StopGrace time.Duration

	// Transport settings
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PingTimeout      time.Duration
	NoticeBuffer     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 10,
		TokenTTL:             120 * time.Second,
		RefreshBuffer:        20 * time.Second,
		StopGrace:            250 * time.Millisecond,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
		PingInterval:         15 * time.Second,
		PingTimeout:          60 * time.Second,
		NoticeBuffer:         256,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.ReconnectBaseDelay == 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay == 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.RefreshBuffer == 0 {
		cfg.RefreshBuffer = def.RefreshBuffer
	}
	if cfg.StopGrace == 0 {
		cfg.StopGrace = def.StopGrace
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if cfg.NoticeBuffer == 0 {
		cfg.NoticeBuffer = def.NoticeBuffer
	}
	return cfg
}

// transportConfig derives the transport settings.
func (cfg Config) transportConfig() transport.Config {
	return transport.Config{
		URL:              cfg.URL,
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		PingInterval:     cfg.PingInterval,
		PingTimeout:      cfg.PingTimeout,
	}
}
