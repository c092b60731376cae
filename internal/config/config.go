package config

import "time"

// StreamerConfig is the root configuration for a streamer instance.
type StreamerConfig struct {
	Instance      InstanceConfig       `yaml:"instance"`
	API           APIConfig            `yaml:"api"`
	Database      DatabaseConfig       `yaml:"database"`
	Connection    ConnectionConfig     `yaml:"connection"`
	Writers       WritersConfig        `yaml:"writers"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
}

// InstanceConfig identifies this streamer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds Coinbase Advanced Trade API settings.
type APIConfig struct {
	MarketDataURL  string        `yaml:"market_data_url"`
	UserURL        string        `yaml:"user_url"`
	KeyID          string        `yaml:"key_id"`           // API key id from the CDP dashboard
	PrivateKeyPath string        `yaml:"private_key_path"` // Path to EC private key PEM file
	TokenTTL       time.Duration `yaml:"token_ttl"`
	RefreshBuffer  time.Duration `yaml:"refresh_buffer"`
}

// DatabaseConfig holds the TimescaleDB connection for recorded stream data.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ConnectionConfig holds WebSocket connection manager settings.
type ConnectionConfig struct {
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	StopGrace            time.Duration `yaml:"stop_grace"`
	NoticeBuffer         int           `yaml:"notice_buffer"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// SubscriptionConfig is one channel/product set to subscribe at startup.
type SubscriptionConfig struct {
	Channel  string   `yaml:"channel"`
	Products []string `yaml:"products"`
}
