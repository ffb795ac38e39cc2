package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rickgao/predictors-stream/internal/exchange"
	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/model"
	"github.com/rickgao/predictors-stream/internal/subscription"
)

var errPayloadCount = errors.New("event must carry exactly one payload")

// snapshotEntry is one market's lifecycle snapshot in a classify file.
type snapshotEntry struct {
	Exchange exchange.ID `yaml:"exchange"` // default: KAL
	Market   string      `yaml:"market"`

	lifecycle.Snapshot `yaml:",inline"`
}

func (e snapshotEntry) market() model.PredictionMarket {
	return model.PredictionMarket{Exchange: defaultExchange(e.Exchange), Market: e.Market}
}

// replayFile is a recorded sequence of stream payloads.
type replayFile struct {
	// Until advances the clock after the last event so time-based
	// transitions are emitted.
	Until  *time.Time    `yaml:"until"`
	Events []replayEvent `yaml:"events"`
}

// replayEvent holds exactly one payload.
type replayEvent struct {
	At       time.Time   `yaml:"at"` // receive time; zero keeps the current clock
	Exchange exchange.ID `yaml:"exchange"`
	Market   string      `yaml:"market"`

	Lifecycle *lifecycle.Snapshot    `yaml:"lifecycle"`
	Trade     *model.Trade           `yaml:"trade"`
	Ticker    *model.TickerUpdate    `yaml:"ticker"`
	Orderbook *model.OrderbookUpdate `yaml:"orderbook"`
	Fill      *model.Fill            `yaml:"fill"`
}

// envelope returns the dispatch key and payload of e.
func (e replayEvent) envelope() (subscription.Key, any, error) {
	key := subscription.Key{Exchange: defaultExchange(e.Exchange), Market: e.Market}
	if e.Market == "" {
		return key, nil, errors.New("event has no market")
	}

	var (
		payload any
		n       int
	)
	if e.Lifecycle != nil {
		key.Channel, payload = subscription.KindMarketLifecycles, *e.Lifecycle
		n++
	}
	if e.Trade != nil {
		key.Channel, payload = subscription.KindTrades, *e.Trade
		n++
	}
	if e.Ticker != nil {
		key.Channel, payload = subscription.KindTickers, *e.Ticker
		n++
	}
	if e.Orderbook != nil {
		key.Channel, payload = subscription.KindOrderbookDeltas, *e.Orderbook
		n++
	}
	if e.Fill != nil {
		key.Channel, payload = subscription.KindFills, *e.Fill
		n++
	}
	if n != 1 {
		return key, nil, fmt.Errorf("%w, got %d", errPayloadCount, n)
	}
	return key, payload, nil
}

func defaultExchange(id exchange.ID) exchange.ID {
	if id == 0 {
		return exchange.Kalshi
	}
	return id
}

func loadSnapshots(path string) ([]snapshotEntry, error) {
	var entries []snapshotEntry
	if err := loadYAML(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func loadReplayFile(path string) (*replayFile, error) {
	var rf replayFile
	if err := loadYAML(path, &rf); err != nil {
		return nil, err
	}
	return &rf, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
