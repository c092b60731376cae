package config

import (
	"errors"
	"fmt"
)

var knownChannels = map[string]bool{
	"user":          true,
	"heartbeats":    true,
	"level2":        true,
	"ticker":        true,
	"ticker_batch":  true,
	"market_trades": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *StreamerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.Timescale.validate("database.timescale"); err != nil {
		return err
	}

	if c.API.RefreshBuffer >= c.API.TokenTTL {
		return fmt.Errorf("api.refresh_buffer (%v) must be less than api.token_ttl (%v)",
			c.API.RefreshBuffer, c.API.TokenTTL)
	}

	if c.Connection.MaxReconnectAttempts < 1 {
		return errors.New("connection.max_reconnect_attempts must be >= 1")
	}
	if c.Connection.ReconnectBaseDelay > c.Connection.ReconnectMaxDelay {
		return fmt.Errorf("connection.reconnect_base_delay (%v) cannot exceed reconnect_max_delay (%v)",
			c.Connection.ReconnectBaseDelay, c.Connection.ReconnectMaxDelay)
	}

	if c.Writers.BatchSize < 1 {
		return errors.New("writers.batch_size must be >= 1")
	}
	if c.Writers.BufferSize < 1 {
		return errors.New("writers.buffer_size must be >= 1")
	}

	for i, sub := range c.Subscriptions {
		if !knownChannels[sub.Channel] {
			return fmt.Errorf("subscriptions[%d].channel %q is not a known channel", i, sub.Channel)
		}
		if sub.Channel != "heartbeats" && len(sub.Products) == 0 {
			return fmt.Errorf("subscriptions[%d] (%s) requires at least one product", i, sub.Channel)
		}
		if sub.Channel == "user" {
			if c.API.KeyID == "" {
				return errors.New("api.key_id is required for the user channel")
			}
			if c.API.PrivateKeyPath == "" {
				return errors.New("api.private_key_path is required for the user channel")
			}
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
