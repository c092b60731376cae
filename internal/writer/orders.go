package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderWriter consumes order-update rows from the authenticated channel
// and appends them to the order_updates table.
type OrderWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *Buffer[orderRow]
	db    *pgxpool.Pool

	batch       []orderRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewOrderWriter creates a new OrderWriter.
func NewOrderWriter(cfg WriterConfig, input *Buffer[orderRow], db *pgxpool.Pool, logger *slog.Logger) *OrderWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]orderRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming rows and writing to the database.
func (w *OrderWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("order writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *OrderWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping order writer")

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
		w.logger.Info("order writer stopped")
	case <-ctx.Done():
		w.logger.Warn("order writer stop timed out")
	}

	// Final flush
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *OrderWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *OrderWriter) consumeLoop() {
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

func (w *OrderWriter) flushLoop() {
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

func (w *OrderWriter) add(row orderRow) {
	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

func (w *OrderWriter) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]orderRow, 0, w.cfg.BatchSize)
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

	w.logger.Debug("flushed order updates",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

func (w *OrderWriter) batchInsert(rows []orderRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO order_updates (received_at, order_id, client_order_id, product_id, status, side, cumulative_qty, leaves_qty, avg_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, r.ReceivedAt, r.OrderID, r.ClientOrderID, r.ProductID, r.Status, r.Side, r.CumulativeQty, r.LeavesQty, r.AvgPrice)
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
