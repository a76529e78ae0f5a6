package common

import (
	"time"

	"github.com/quantfabric/replay/pkg/utility"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type Tick struct {
	Bid       fixed.Point `json:"bid"`
	Ask       fixed.Point `json:"ask"`
	Last      fixed.Point `json:"last"`
	BidVolume fixed.Point `json:"bid_volume"`
	AskVolume fixed.Point `json:"ask_volume"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Mid is the bid/ask midpoint, used as the mark price when no trade price
// is present on the tick.
func (t Tick) Mid() fixed.Point {
	return t.Bid.Add(t.Ask).DivInt(2)
}

// Mark returns the last traded price, falling back to the midpoint.
func (t Tick) Mark() fixed.Point {
	if !t.Last.IsZero() {
		return t.Last
	}
	return t.Mid()
}
