package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-streamer
api:
  market_data_url: wss://example.test/md
database:
  timescale:
    host: localhost
    port: 5432
    name: test_ts
    user: testuser
    password: testpass
subscriptions:
  - channel: ticker
    products: [BTC-USD, ETH-USD]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-streamer" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-streamer")
	}
	if cfg.API.MarketDataURL != "wss://example.test/md" {
		t.Errorf("API.MarketDataURL = %q", cfg.API.MarketDataURL)
	}
	if len(cfg.Subscriptions) != 1 || cfg.Subscriptions[0].Channel != "ticker" {
		t.Errorf("Subscriptions = %+v", cfg.Subscriptions)
	}
	if got := cfg.Subscriptions[0].Products; len(got) != 2 || got[0] != "BTC-USD" {
		t.Errorf("Subscriptions[0].Products = %v", got)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-streamer
database:
  timescale:
    host: localhost
    name: test_ts
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Timescale.Password != "secret123" {
		t.Errorf("Database.Timescale.Password = %q, want %q", cfg.Database.Timescale.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-streamer
database:
  timescale:
    host: localhost
    name: test_ts
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.MarketDataURL != DefaultMarketDataURL {
		t.Errorf("API.MarketDataURL = %q, want default", cfg.API.MarketDataURL)
	}
	if cfg.API.UserURL != DefaultUserURL {
		t.Errorf("API.UserURL = %q, want default", cfg.API.UserURL)
	}
	if cfg.API.TokenTTL != 2*time.Minute {
		t.Errorf("API.TokenTTL = %v, want 2m", cfg.API.TokenTTL)
	}
	if cfg.Connection.ReconnectBaseDelay != time.Second {
		t.Errorf("Connection.ReconnectBaseDelay = %v, want 1s", cfg.Connection.ReconnectBaseDelay)
	}
	if cfg.Connection.ReconnectMaxDelay != 30*time.Second {
		t.Errorf("Connection.ReconnectMaxDelay = %v, want 30s", cfg.Connection.ReconnectMaxDelay)
	}
	if cfg.Connection.MaxReconnectAttempts != 10 {
		t.Errorf("Connection.MaxReconnectAttempts = %d, want 10", cfg.Connection.MaxReconnectAttempts)
	}
	if cfg.Database.Timescale.Port != 5432 {
		t.Errorf("Database.Timescale.Port = %d, want 5432", cfg.Database.Timescale.Port)
	}
	if cfg.Writers.BatchSize != DefaultBatchSize {
		t.Errorf("Writers.BatchSize = %d, want default", cfg.Writers.BatchSize)
	}
}

func TestValidate(t *testing.T) {
	base := func() *StreamerConfig {
		cfg := &StreamerConfig{
			Instance: InstanceConfig{ID: "test-streamer"},
			Database: DatabaseConfig{
				Timescale: DBConfig{
					Host: "localhost", Name: "ts", User: "u", Password: "p",
				},
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*StreamerConfig)
		wantSub string
	}{
		{
			"missing instance id",
			func(c *StreamerConfig) { c.Instance.ID = "" },
			"instance.id",
		},
		{
			"missing db host",
			func(c *StreamerConfig) { c.Database.Timescale.Host = "" },
			"database.timescale.host",
		},
		{
			"refresh buffer too large",
			func(c *StreamerConfig) { c.API.RefreshBuffer = 3 * time.Minute },
			"refresh_buffer",
		},
		{
			"unknown channel",
			func(c *StreamerConfig) {
				c.Subscriptions = []SubscriptionConfig{{Channel: "candles", Products: []string{"BTC-USD"}}}
			},
			"not a known channel",
		},
		{
			"channel without products",
			func(c *StreamerConfig) {
				c.Subscriptions = []SubscriptionConfig{{Channel: "ticker"}}
			},
			"at least one product",
		},
		{
			"user channel without key",
			func(c *StreamerConfig) {
				c.Subscriptions = []SubscriptionConfig{{Channel: "user", Products: []string{"BTC-USD"}}}
			},
			"api.key_id",
		},
		{
			"min conns above max",
			func(c *StreamerConfig) {
				c.Database.Timescale.MinConns = 20
			},
			"min_conns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestHeartbeatsNeedsNoProducts(t *testing.T) {
	cfg := &StreamerConfig{
		Instance: InstanceConfig{ID: "test-streamer"},
		Database: DatabaseConfig{
			Timescale: DBConfig{Host: "localhost", Name: "ts", User: "u", Password: "p"},
		},
		Subscriptions: []SubscriptionConfig{{Channel: "heartbeats"}},
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("heartbeats subscription rejected: %v", err)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
