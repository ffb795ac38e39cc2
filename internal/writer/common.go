package writer

import (
	"encoding/json"
	"time"

	"github.com/rickgao/predictors-stream/internal/model"
)

// sideToBoolean converts "yes"/"no" string to boolean (TRUE = yes, FALSE = no).
func sideToBoolean(side string) bool {
	return side == "yes"
}

// toMicros returns t as Unix microseconds, 0 for the zero time.
func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// priceLevelJSON represents a price level in JSONB format.
type priceLevelJSON struct {
	Price int `json:"price"`
	Size  int `json:"size"`
}

// priceLevelsToJSONB converts price levels to JSONB bytes.
func priceLevelsToJSONB(levels []model.PriceLevel) []byte {
	result := make([]priceLevelJSON, len(levels))
	for i, level := range levels {
		result[i] = priceLevelJSON{
			Price: model.DollarsToInternal(level.Dollars),
			Size:  level.Quantity,
		}
	}
	data, _ := json.Marshal(result)
	return data
}

// deriveAsksFromBids converts bids to asks on the opposite side.
// YES bid at X = NO ask at (MaxPrice - X)
func deriveAsksFromBids(bids []model.PriceLevel) []byte {
	asks := make([]priceLevelJSON, len(bids))
	for i, bid := range bids {
		asks[i] = priceLevelJSON{
			Price: model.MaxPrice - model.DollarsToInternal(bid.Dollars),
			Size:  bid.Quantity,
		}
	}
	data, _ := json.Marshal(asks)
	return data
}
