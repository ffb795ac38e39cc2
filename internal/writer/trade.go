package writer

import (
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/predictors-stream/internal/model"
	"github.com/rickgao/predictors-stream/internal/router"
)

// TradeWriter consumes trades from a router tap and writes to the trades table.
type TradeWriter struct {
	*batchWriter[model.Trade, tradeRow]
}

// NewTradeWriter creates a new TradeWriter.
func NewTradeWriter(
	cfg WriterConfig,
	input *router.GrowableBuffer[router.Message[model.Trade]],
	db BatchSender,
	logger *slog.Logger,
) *TradeWriter {
	return &TradeWriter{
		batchWriter: newBatchWriter("trade", cfg, input, db, logger, transformTrade, queueTrade),
	}
}

func transformTrade(msg router.Message[model.Trade]) (tradeRow, bool) {
	t := msg.Event
	return tradeRow{
		TradeID:    t.TradeID,
		Exchange:   msg.Key.Exchange.String(),
		ExchangeTs: toMicros(t.ExchangeTS),
		ReceivedAt: toMicros(msg.ReceivedAt),
		Ticker:     t.Ticker,
		Price:      model.DollarsToInternal(t.YesPriceDollars),
		Size:       t.Size,
		TakerSide:  sideToBoolean(t.TakerSide),
	}, true
}

func queueTrade(b *pgx.Batch, r tradeRow) {
	b.Queue(`
		INSERT INTO trades (trade_id, exchange, exchange_ts, received_at, ticker, price, size, taker_side)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (trade_id) DO NOTHING
	`, r.TradeID, r.Exchange, r.ExchangeTs, r.ReceivedAt, r.Ticker, r.Price, r.Size, r.TakerSide)
}
