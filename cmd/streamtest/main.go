// streamtest connects to the Advanced Trade WebSocket feed and prints
// parsed events to the console.
// Usage: go run ./cmd/streamtest --channel ticker --products BTC-USD,ETH-USD
//
// For the user channel, set environment variables:
//
//	COINBASE_KEY_ID           - API key id from the CDP dashboard
//	COINBASE_PRIVATE_KEY_PATH - Path to your EC private key PEM file
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/drdray1/ex-coinbase/internal/auth"
	"github.com/drdray1/ex-coinbase/internal/config"
	"github.com/drdray1/ex-coinbase/internal/events"
	"github.com/drdray1/ex-coinbase/internal/stream"
)

func main() {
	channel := flag.String("channel", "ticker", "channel to subscribe (ticker, ticker_batch, level2, market_trades, user)")
	products := flag.String("products", "BTC-USD", "comma-separated product ids")
	url := flag.String("url", "", "override WebSocket URL")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	productIDs := strings.Split(*products, ",")

	var conn *stream.Conn
	cfg := stream.DefaultConfig()

	if *channel == "user" {
		keyID := os.Getenv("COINBASE_KEY_ID")
		keyPath := os.Getenv("COINBASE_PRIVATE_KEY_PATH")
		creds, err := auth.LoadCredentials(keyID, keyPath)
		if err != nil {
			logger.Error("failed to load credentials", "error", err)
			logger.Info("set COINBASE_KEY_ID and COINBASE_PRIVATE_KEY_PATH")
			os.Exit(1)
		}

		cfg.URL = config.DefaultUserURL
		if *url != "" {
			cfg.URL = *url
		}
		conn = stream.NewUserConn(cfg, creds, logger)
	} else {
		cfg.URL = config.DefaultMarketDataURL
		if *url != "" {
			cfg.URL = *url
		}
		conn = stream.NewMarketDataConn(cfg, logger)
	}

	if err := conn.Start(ctx); err != nil {
		logger.Error("failed to start connection", "error", err)
		os.Exit(1)
	}
	defer conn.Stop()

	sink := make(chan events.Event, 256)
	done := make(chan struct{})
	defer close(done)
	conn.AddSubscriber(sink, done)

	subChannel := *channel
	if subChannel == "user" {
		subChannel = ""
	}
	if err := conn.Subscribe(subChannel, productIDs); err != nil {
		logger.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	logger.Info("streaming", "channel", *channel, "products", productIDs, "url", cfg.URL)

	count := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("done", "events", count)
			return
		case ev := <-sink:
			count++
			printEvent(logger, ev, *verbose)
		}
	}
}

func printEvent(logger *slog.Logger, ev events.Event, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(ev, "", "  ")
		os.Stdout.Write(append(data, '\n'))
		return
	}

	switch e := ev.(type) {
	case events.TickerEvent:
		for _, t := range e.Tickers {
			logger.Info("ticker",
				"product", t["product_id"],
				"price", t["price"],
				"best_bid", t["best_bid"],
				"best_ask", t["best_ask"],
			)
		}
	case events.TickerBatchEvent:
		logger.Info("ticker batch", "count", len(e.Tickers))
	case events.Level2Event:
		logger.Info("level2", "product", e.ProductID, "updates", len(e.Updates))
	case events.MarketTradesEvent:
		for _, t := range e.Trades {
			logger.Info("trade",
				"product", t["product_id"],
				"price", t["price"],
				"size", t["size"],
				"side", t["side"],
			)
		}
	case events.UserOrderEvent:
		for _, u := range e.Updates {
			logger.Info("order",
				"order_id", u.OrderID,
				"product", u.ProductID,
				"status", u.Status,
				"side", u.Side,
			)
		}
	default:
		logger.Info("event", "type", ev)
	}
}
