package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drdray1/ex-coinbase/internal/auth"
	"github.com/drdray1/ex-coinbase/internal/config"
	"github.com/drdray1/ex-coinbase/internal/database"
	"github.com/drdray1/ex-coinbase/internal/stream"
	"github.com/drdray1/ex-coinbase/internal/version"
	"github.com/drdray1/ex-coinbase/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/streamer.local.yaml", "path to config file")
	healthPort := flag.Int("health-port", 8080, "health endpoint port")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"market_data_url", cfg.API.MarketDataURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)

	pools, err := database.NewPools(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pools.Close()

	logger.Info("database connected")

	// Start the recorder pipeline
	recorder := writer.NewRecorder(writer.WriterConfig{
		BatchSize:     cfg.Writers.BatchSize,
		FlushInterval: cfg.Writers.FlushInterval,
		BufferSize:    cfg.Writers.BufferSize,
	}, pools.Timescale, logger)

	if err := recorder.Start(ctx); err != nil {
		logger.Error("failed to start recorder", "error", err)
		os.Exit(1)
	}

	// Market-data connection
	marketConn := stream.NewMarketDataConn(streamConfig(cfg, cfg.API.MarketDataURL), logger)
	if err := marketConn.Start(ctx); err != nil {
		logger.Error("failed to start market-data connection", "error", err)
		os.Exit(1)
	}
	marketConn.AddSubscriber(recorder.Sink(), recorder.Done())

	// User connection, only when the configuration asks for it
	var userConn *stream.Conn
	if hasUserSubscription(cfg) {
		creds, err := auth.LoadCredentials(cfg.API.KeyID, cfg.API.PrivateKeyPath)
		if err != nil {
			logger.Error("failed to load credentials", "error", err)
			os.Exit(1)
		}

		userConn = stream.NewUserConn(streamConfig(cfg, cfg.API.UserURL), creds, logger)
		if err := userConn.Start(ctx); err != nil {
			logger.Error("failed to start user connection", "error", err)
			os.Exit(1)
		}
		userConn.AddSubscriber(recorder.Sink(), recorder.Done())
	}

	// Apply configured subscriptions
	for _, sub := range cfg.Subscriptions {
		var err error
		if sub.Channel == "user" {
			err = userConn.Subscribe("", sub.Products)
		} else {
			err = marketConn.Subscribe(sub.Channel, sub.Products)
		}
		if err != nil {
			logger.Error("subscription failed",
				"channel", sub.Channel,
				"products", sub.Products,
				"error", err,
			)
			os.Exit(1)
		}
		logger.Info("subscribed", "channel", sub.Channel, "products", sub.Products)
	}

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *healthPort),
		Handler: createHealthHandler(pools, marketConn, userConn, recorder),
	}
	go func() {
		logger.Info("starting health server", "port", *healthPort)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("streamer running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", *healthPort),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	marketConn.Stop()
	if userConn != nil {
		userConn.Stop()
	}
	recorder.Stop(shutdownCtx)
	healthServer.Shutdown(shutdownCtx)

	logger.Info("streamer stopped")
}

// streamConfig maps file configuration onto one connection's settings.
func streamConfig(cfg *config.StreamerConfig, url string) stream.Config {
	return stream.Config{
		URL:                  url,
		ReconnectBaseDelay:   cfg.Connection.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Connection.ReconnectMaxDelay,
		MaxReconnectAttempts: cfg.Connection.MaxReconnectAttempts,
		TokenTTL:             cfg.API.TokenTTL,
		RefreshBuffer:        cfg.API.RefreshBuffer,
		StopGrace:            cfg.Connection.StopGrace,
		HandshakeTimeout:     cfg.Connection.HandshakeTimeout,
		WriteTimeout:         cfg.Connection.WriteTimeout,
		PingInterval:         cfg.Connection.PingInterval,
		PingTimeout:          cfg.Connection.PingTimeout,
		NoticeBuffer:         cfg.Connection.NoticeBuffer,
	}
}

func hasUserSubscription(cfg *config.StreamerConfig) bool {
	for _, sub := range cfg.Subscriptions {
		if sub.Channel == "user" {
			return true
		}
	}
	return false
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(pools *database.Pools, marketConn, userConn *stream.Conn, recorder *writer.Recorder) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pools.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["timescaledb"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["timescaledb"] = "connected"
		}

		// Check connections
		health.Components["market_data"] = connectionHealth(marketConn)
		if marketConn.Status() != stream.StatusConnected {
			health.Status = "degraded"
		}
		if userConn != nil {
			health.Components["user"] = connectionHealth(userConn)
			if userConn.Status() != stream.StatusConnected {
				health.Status = "degraded"
			}
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/writers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recorder.Stats())
	})

	return mux
}

func connectionHealth(conn *stream.Conn) map[string]interface{} {
	info := conn.Info()
	return map[string]interface{}{
		"status":      string(info.Status),
		"channels":    info.Channels,
		"subscribers": info.Subscribers,
	}
}
