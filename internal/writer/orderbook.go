package writer

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/predictors-stream/internal/model"
	"github.com/rickgao/predictors-stream/internal/orderbook"
	"github.com/rickgao/predictors-stream/internal/router"
)

// OrderbookWriter consumes orderbook updates, keeps a reconstructed book per
// market, and writes to the orderbook_deltas and orderbook_snapshots tables.
// Deltas are stored even when the book is out of sync; gaps are counted in
// WriterMetrics.SeqGaps.
type OrderbookWriter struct {
	*batchWriter[model.OrderbookUpdate, orderbookRow]

	booksMu sync.Mutex
	books   map[string]*orderbook.Book
}

// NewOrderbookWriter creates a new OrderbookWriter.
func NewOrderbookWriter(
	cfg WriterConfig,
	input *router.GrowableBuffer[router.Message[model.OrderbookUpdate]],
	db BatchSender,
	logger *slog.Logger,
) *OrderbookWriter {
	w := &OrderbookWriter{
		books: make(map[string]*orderbook.Book),
	}
	w.batchWriter = newBatchWriter("orderbook", cfg, input, db, logger, w.transform, queueOrderbook)
	return w
}

// Book returns the reconstructed book for ticker, or nil if none was seen.
func (w *OrderbookWriter) Book(ticker string) *orderbook.Book {
	w.booksMu.Lock()
	defer w.booksMu.Unlock()
	return w.books[ticker]
}

func (w *OrderbookWriter) book(ticker string) *orderbook.Book {
	w.booksMu.Lock()
	defer w.booksMu.Unlock()

	b, ok := w.books[ticker]
	if !ok {
		b = orderbook.NewBook(ticker)
		w.books[ticker] = b
	}
	return b
}

func (w *OrderbookWriter) transform(msg router.Message[model.OrderbookUpdate]) (orderbookRow, bool) {
	u := msg.Event
	if u.Ticker == "" {
		u.Ticker = msg.Key.Market
	}
	book := w.book(u.Ticker)

	if err := book.Apply(u); err != nil {
		switch {
		case errors.Is(err, orderbook.ErrSequenceGap):
			w.logger.Warn("sequence gap detected", "ticker", u.Ticker, "error", err)
			w.note(func(m *WriterMetrics) { m.SeqGaps++ })
		case errors.Is(err, orderbook.ErrNoSnapshot):
			w.logger.Debug("delta before snapshot", "ticker", u.Ticker, "seq", u.Seq)
		default:
			w.logger.Warn("orderbook update rejected", "ticker", u.Ticker, "error", err)
			return orderbookRow{}, false
		}
	}

	exchange := msg.Key.Exchange.String()

	if u.Type == model.OrderbookSnapshot {
		row := &orderbookSnapshotRow{
			Exchange:   exchange,
			SnapshotTs: toMicros(msg.ReceivedAt),
			Seq:        u.Seq,
			Ticker:     u.Ticker,
			YesBids:    priceLevelsToJSONB(u.Yes),
			YesAsks:    deriveAsksFromBids(u.No), // NO bids → YES asks
			NoBids:     priceLevelsToJSONB(u.No),
			NoAsks:     deriveAsksFromBids(u.Yes), // YES bids → NO asks
		}
		if lvl, ok := book.BestYesBid(); ok {
			row.BestYesBid = lvl.Price
		}
		if lvl, ok := book.BestYesAsk(); ok {
			row.BestYesAsk = lvl.Price
		}
		if spread, ok := book.Spread(); ok {
			row.Spread = spread
		}
		return orderbookRow{snapshot: row}, true
	}

	return orderbookRow{delta: &orderbookDeltaRow{
		Exchange:   exchange,
		ExchangeTs: toMicros(u.ExchangeTS),
		ReceivedAt: toMicros(msg.ReceivedAt),
		Seq:        u.Seq,
		Ticker:     u.Ticker,
		Side:       sideToBoolean(u.Side),
		Price:      model.DollarsToInternal(u.PriceDollars),
		SizeDelta:  u.Delta,
	}}, true
}

func queueOrderbook(b *pgx.Batch, r orderbookRow) {
	if s := r.snapshot; s != nil {
		b.Queue(`
			INSERT INTO orderbook_snapshots (exchange, snapshot_ts, seq, ticker, yes_bids, yes_asks, no_bids, no_asks, best_yes_bid, best_yes_ask, spread)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (ticker, snapshot_ts) DO NOTHING
		`, s.Exchange, s.SnapshotTs, s.Seq, s.Ticker, s.YesBids, s.YesAsks, s.NoBids, s.NoAsks, s.BestYesBid, s.BestYesAsk, s.Spread)
		return
	}

	d := r.delta
	b.Queue(`
		INSERT INTO orderbook_deltas (exchange, exchange_ts, received_at, ticker, side, price, size_delta, seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, seq) DO NOTHING
	`, d.Exchange, d.ExchangeTs, d.ReceivedAt, d.Ticker, d.Side, d.Price, d.SizeDelta, d.Seq)
}
