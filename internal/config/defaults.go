package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultMarketDataURL        = "wss://advanced-trade-ws.coinbase.com"
	DefaultUserURL              = "wss://advanced-trade-ws-user.coinbase.com"
	DefaultTokenTTL             = 2 * time.Minute
	DefaultRefreshBuffer        = 20 * time.Second
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 15 * time.Second
	DefaultPingTimeout          = 60 * time.Second
	DefaultStopGrace            = 250 * time.Millisecond
	DefaultNoticeBuffer         = 256
	DefaultBatchSize            = 1000
	DefaultFlushInterval        = 1 * time.Second
	DefaultBufferSize           = 10000
)

func (c *StreamerConfig) applyDefaults() {
	// API defaults
	if c.API.MarketDataURL == "" {
		c.API.MarketDataURL = DefaultMarketDataURL
	}
	if c.API.UserURL == "" {
		c.API.UserURL = DefaultUserURL
	}
	if c.API.TokenTTL == 0 {
		c.API.TokenTTL = DefaultTokenTTL
	}
	if c.API.RefreshBuffer == 0 {
		c.API.RefreshBuffer = DefaultRefreshBuffer
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Connection defaults
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.MaxReconnectAttempts == 0 {
		c.Connection.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.StopGrace == 0 {
		c.Connection.StopGrace = DefaultStopGrace
	}
	if c.Connection.NoticeBuffer == 0 {
		c.Connection.NoticeBuffer = DefaultNoticeBuffer
	}

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}
	if c.Writers.BufferSize == 0 {
		c.Writers.BufferSize = DefaultBufferSize
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
