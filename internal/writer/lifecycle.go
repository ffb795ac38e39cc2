package writer

import (
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/router"
)

// LifecycleWriter consumes lifecycle updates from a router tap and writes
// them to the market_lifecycles table.
type LifecycleWriter struct {
	*batchWriter[lifecycle.Update, lifecycleRow]
}

// NewLifecycleWriter creates a new LifecycleWriter.
func NewLifecycleWriter(
	cfg WriterConfig,
	input *router.GrowableBuffer[router.Message[lifecycle.Update]],
	db BatchSender,
	logger *slog.Logger,
) *LifecycleWriter {
	return &LifecycleWriter{
		batchWriter: newBatchWriter("lifecycle", cfg, input, db, logger, transformLifecycle, queueLifecycle),
	}
}

func transformLifecycle(msg router.Message[lifecycle.Update]) (lifecycleRow, bool) {
	return lifecycleRow{
		Exchange: msg.Key.Exchange.String(),
		Ticker:   msg.Key.Market,
		State:    msg.Event.State.String(),
		StatusTs: msg.Event.StatusTS,
		UpdateTs: msg.Event.UpdateTS,
	}, true
}

// queueLifecycle queues one insert. A market re-entering the same state at
// the same status time is a duplicate.
func queueLifecycle(b *pgx.Batch, r lifecycleRow) {
	b.Queue(`
		INSERT INTO market_lifecycles (exchange, ticker, state, status_ts, update_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (exchange, ticker, state, status_ts) DO NOTHING
	`, r.Exchange, r.Ticker, r.State, r.StatusTs, r.UpdateTs)
}
