package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TickerWriter consumes ticker rows and writes them to the tickers table.
type TickerWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *Buffer[tickerRow]
	db    *pgxpool.Pool

	batch       []tickerRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewTickerWriter creates a new TickerWriter.
func NewTickerWriter(cfg WriterConfig, input *Buffer[tickerRow], db *pgxpool.Pool, logger *slog.Logger) *TickerWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickerWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]tickerRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming rows and writing to the database.
func (w *TickerWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("ticker writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *TickerWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping ticker writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("ticker writer stopped")
	case <-ctx.Done():
		w.logger.Warn("ticker writer stop timed out")
	}

	// Final flush
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *TickerWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *TickerWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			row, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}
			w.add(row)
		}
	}
}

func (w *TickerWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

func (w *TickerWriter) add(row tickerRow) {
	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

func (w *TickerWriter) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]tickerRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	if err := w.batchInsert(batch); err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch))
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed tickers",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

func (w *TickerWriter) batchInsert(rows []tickerRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO tickers (received_at, product_id, price, best_bid, best_ask, volume_24h)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.ReceivedAt, r.ProductID, r.Price, r.BestBid, r.BestAsk, r.Volume24h)
	}

	results := w.db.SendBatch(w.ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
