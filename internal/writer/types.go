package writer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     1000,
		FlushInterval: 5 * time.Second,
	}
}

// BatchSender sends a queued batch. *pgxpool.Pool satisfies it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	SeqGaps   int64
	Dropped   int64 // rows discarded with no database configured
}

// lifecycleRow represents a row for the market_lifecycles table.
type lifecycleRow struct {
	Exchange string
	Ticker   string
	State    string
	StatusTs time.Time
	UpdateTs time.Time
}

// tradeRow represents a row to be inserted into the trades table.
type tradeRow struct {
	TradeID    uuid.UUID
	Exchange   string
	ExchangeTs int64 // Microseconds
	ReceivedAt int64 // Microseconds
	Ticker     string
	Price      int // Hundred-thousandths (0-100,000)
	Size       int
	TakerSide  bool // TRUE = yes, FALSE = no
}

// tickerRow represents a row for the tickers table.
type tickerRow struct {
	Exchange           string
	ExchangeTs         int64
	ReceivedAt         int64
	Ticker             string
	YesBid             int // Hundred-thousandths
	YesAsk             int
	LastPrice          int
	Volume             int64
	OpenInterest       int64
	DollarVolume       int64
	DollarOpenInterest int64
}

// orderbookDeltaRow represents a row for the orderbook_deltas table.
type orderbookDeltaRow struct {
	Exchange   string
	ExchangeTs int64
	ReceivedAt int64
	Seq        int64
	Ticker     string
	Side       bool // TRUE = yes, FALSE = no
	Price      int  // Hundred-thousandths
	SizeDelta  int  // Positive = add, negative = remove
}

// orderbookSnapshotRow represents a row for the orderbook_snapshots table.
type orderbookSnapshotRow struct {
	Exchange   string
	SnapshotTs int64
	Seq        int64
	Ticker     string
	YesBids    []byte // JSONB: [{price: int, size: int}, ...]
	YesAsks    []byte // JSONB: derived from NO bids
	NoBids     []byte // JSONB
	NoAsks     []byte // JSONB: derived from YES bids
	BestYesBid int
	BestYesAsk int
	Spread     int
}

// orderbookRow holds exactly one of a delta or a snapshot.
type orderbookRow struct {
	delta    *orderbookDeltaRow
	snapshot *orderbookSnapshotRow
}
