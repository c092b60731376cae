package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drdray1/ex-coinbase/internal/events"
)

// Recorder bridges a stream subscriber channel into the batch writers.
// Register Sink and Done with the connection's subscriber registry;
// events arriving on the sink are converted to rows and routed to the
// writer for their table.
type Recorder struct {
	logger *slog.Logger

	sink chan events.Event
	done chan struct{}

	tickers *Buffer[tickerRow]
	trades  *Buffer[tradeRow]
	orders  *Buffer[orderRow]

	tickerWriter *TickerWriter
	tradeWriter  *TradeWriter
	orderWriter  *OrderWriter

	wg sync.WaitGroup
}

// NewRecorder creates a recorder with one writer per recorded table.
func NewRecorder(cfg WriterConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		logger:  logger,
		sink:    make(chan events.Event, cfg.BufferSize),
		done:    make(chan struct{}),
		tickers: NewBuffer[tickerRow](cfg.BufferSize),
		trades:  NewBuffer[tradeRow](cfg.BufferSize),
		orders:  NewBuffer[orderRow](cfg.BufferSize),
	}
	r.tickerWriter = NewTickerWriter(cfg, r.tickers, db, logger)
	r.tradeWriter = NewTradeWriter(cfg, r.trades, db, logger)
	r.orderWriter = NewOrderWriter(cfg, r.orders, db, logger)
	return r
}

// Sink is the event channel to register as a subscriber.
func (r *Recorder) Sink() chan<- events.Event { return r.sink }

// Done signals subscriber removal once the recorder stops.
func (r *Recorder) Done() <-chan struct{} { return r.done }

// Start launches the writers and the routing loop.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.tickerWriter.Start(ctx); err != nil {
		return err
	}
	if err := r.tradeWriter.Start(ctx); err != nil {
		return err
	}
	if err := r.orderWriter.Start(ctx); err != nil {
		return err
	}

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("recorder started")
	return nil
}

// Stop deregisters the subscriber, drains the writers, and flushes.
func (r *Recorder) Stop(ctx context.Context) error {
	close(r.done)
	r.wg.Wait()

	r.tickers.Close()
	r.trades.Close()
	r.orders.Close()

	r.tickerWriter.Stop(ctx)
	r.tradeWriter.Stop(ctx)
	r.orderWriter.Stop(ctx)

	r.logger.Info("recorder stopped")
	return nil
}

func (r *Recorder) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.done:
			return
		case ev := <-r.sink:
			r.route(ev)
		}
	}
}

func (r *Recorder) route(ev events.Event) {
	now := time.Now()

	switch e := ev.(type) {
	case events.TickerEvent:
		for _, row := range tickerRows(e.Tickers, now) {
			r.tickers.Send(row)
		}
	case events.TickerBatchEvent:
		for _, row := range tickerRows(e.Tickers, now) {
			r.tickers.Send(row)
		}
	case events.MarketTradesEvent:
		for _, row := range tradeRows(e.Trades, now) {
			r.trades.Send(row)
		}
	case events.UserOrderEvent:
		for _, row := range orderRows(e.Updates, now) {
			r.orders.Send(row)
		}
	default:
		// Level2 and anything new is not recorded.
	}
}

// Stats returns per-writer metrics keyed by table.
func (r *Recorder) Stats() map[string]WriterMetrics {
	return map[string]WriterMetrics{
		"tickers":       r.tickerWriter.Stats(),
		"market_trades": r.tradeWriter.Stats(),
		"order_updates": r.orderWriter.Stats(),
	}
}
