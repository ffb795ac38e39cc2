package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/predictors-stream/internal/router"
)

// batchWriter drains a router buffer into rows and writes them in batches,
// flushing on size or interval.
type batchWriter[E, R any] struct {
	name   string
	cfg    WriterConfig
	logger *slog.Logger

	// Input from the router
	input *router.GrowableBuffer[router.Message[E]]

	// Database, nil to discard rows
	db BatchSender

	// transform returns false to skip a message
	transform func(router.Message[E]) (R, bool)
	queue     func(*pgx.Batch, R)

	batch   []R
	batchMu sync.Mutex
	metrics WriterMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newBatchWriter[E, R any](
	name string,
	cfg WriterConfig,
	input *router.GrowableBuffer[router.Message[E]],
	db BatchSender,
	logger *slog.Logger,
	transform func(router.Message[E]) (R, bool),
	queue func(*pgx.Batch, R),
) *batchWriter[E, R] {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &batchWriter[E, R]{
		name:      name,
		cfg:       cfg,
		input:     input,
		db:        db,
		logger:    logger,
		transform: transform,
		queue:     queue,
		batch:     make([]R, 0, cfg.BatchSize),
	}
}

// Start begins consuming messages and writing to the database.
func (w *batchWriter[E, R]) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.consumeLoop()
	go w.flushLoop()

	w.logger.Info(w.name+" writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts down the loops, writes whatever is still buffered and does a
// final flush bounded by ctx.
func (w *batchWriter[E, R]) Stop(ctx context.Context) error {
	w.logger.Info("stopping " + w.name + " writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info(w.name + " writer stopped")
	case <-ctx.Done():
		w.logger.Warn(w.name + " writer stop timed out")
	}

	for _, msg := range w.input.DrainTo(0) {
		w.handleMessage(ctx, msg)
	}
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *batchWriter[E, R]) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// Pending returns the number of rows waiting for the next flush.
func (w *batchWriter[E, R]) Pending() int {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return len(w.batch)
}

// consumeLoop drains the input buffer and accumulates batches.
func (w *batchWriter[E, R]) consumeLoop() {
	defer w.wg.Done()

	for {
		if w.ctx.Err() != nil {
			return
		}

		msgs := w.input.DrainTo(w.cfg.BatchSize)
		if len(msgs) == 0 {
			// Buffer empty, wait a bit before trying again
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}

		for _, msg := range msgs {
			w.handleMessage(w.ctx, msg)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *batchWriter[E, R]) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

// handleMessage transforms and adds a message to the batch.
func (w *batchWriter[E, R]) handleMessage(ctx context.Context, msg router.Message[E]) {
	row, ok := w.transform(msg)
	if !ok {
		return
	}

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(ctx)
	}
}

// note applies f to the metrics under the batch lock.
func (w *batchWriter[E, R]) note(f func(*WriterMetrics)) {
	w.batchMu.Lock()
	f(&w.metrics)
	w.batchMu.Unlock()
}

// flush writes the current batch to the database.
func (w *batchWriter[E, R]) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]R, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	if w.db == nil {
		w.note(func(m *WriterMetrics) { m.Dropped += int64(len(batch)) })
		w.logger.Debug("no database, discarding rows", "writer", w.name, "count", len(batch))
		return
	}

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "writer", w.name, "error", err, "count", len(batch))
		w.note(func(m *WriterMetrics) { m.Errors++ })
		return
	}

	w.note(func(m *WriterMetrics) {
		m.Inserts += int64(len(batch) - conflicts)
		m.Conflicts += int64(conflicts)
		m.Flushes++
	})

	w.logger.Debug("flushed rows",
		"writer", w.name,
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert sends rows in one pgx.Batch. Rows that hit ON CONFLICT DO
// NOTHING are counted as conflicts.
func (w *batchWriter[E, R]) batchInsert(ctx context.Context, rows []R) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		w.queue(batch, r)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
