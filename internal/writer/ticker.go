package writer

import (
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/predictors-stream/internal/model"
	"github.com/rickgao/predictors-stream/internal/router"
)

// TickerWriter consumes ticker updates and writes to the tickers table.
type TickerWriter struct {
	*batchWriter[model.TickerUpdate, tickerRow]
}

// NewTickerWriter creates a new TickerWriter.
func NewTickerWriter(
	cfg WriterConfig,
	input *router.GrowableBuffer[router.Message[model.TickerUpdate]],
	db BatchSender,
	logger *slog.Logger,
) *TickerWriter {
	return &TickerWriter{
		batchWriter: newBatchWriter("ticker", cfg, input, db, logger, transformTicker, queueTicker),
	}
}

func transformTicker(msg router.Message[model.TickerUpdate]) (tickerRow, bool) {
	u := msg.Event
	return tickerRow{
		Exchange:           msg.Key.Exchange.String(),
		ExchangeTs:         toMicros(u.ExchangeTS),
		ReceivedAt:         toMicros(msg.ReceivedAt),
		Ticker:             u.Ticker,
		YesBid:             model.DollarsToInternal(u.YesBidDollars),
		YesAsk:             model.DollarsToInternal(u.YesAskDollars),
		LastPrice:          model.DollarsToInternal(u.PriceDollars),
		Volume:             u.Volume,
		OpenInterest:       u.OpenInterest,
		DollarVolume:       u.DollarVolume,
		DollarOpenInterest: u.DollarOpenInterest,
	}, true
}

func queueTicker(b *pgx.Batch, r tickerRow) {
	b.Queue(`
		INSERT INTO tickers (exchange, exchange_ts, received_at, ticker, yes_bid, yes_ask, last_price, volume, open_interest, dollar_volume, dollar_open_interest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticker, exchange_ts) DO NOTHING
	`, r.Exchange, r.ExchangeTs, r.ReceivedAt, r.Ticker, r.YesBid, r.YesAsk, r.LastPrice, r.Volume, r.OpenInterest, r.DollarVolume, r.DollarOpenInterest)
}
