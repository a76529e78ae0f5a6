package feed

import (
	"errors"
	"fmt"

	"github.com/quantfabric/replay/pkg/common"
)

var ErrUnsortedData = errors.New("feed: series timestamps are not non-decreasing")

// Series holds the pre-loaded chronological data of one instrument. Inputs
// are collaborator-supplied and must already be sorted; construction fails
// fast on the first out-of-order record.
type Series struct {
	Symbol string
	Ticks  []common.Tick
	Bars   []common.Bar
}

func NewSeries(symbol string, ticks []common.Tick, bars []common.Bar) (Series, error) {
	s := Series{Symbol: symbol, Ticks: ticks, Bars: bars}
	if err := s.validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

func (s Series) validate() error {
	for i := 1; i < len(s.Ticks); i++ {
		if s.Ticks[i].TimeStamp.Before(s.Ticks[i-1].TimeStamp) {
			return fmt.Errorf("%w: %s tick %d at %s precedes %s",
				ErrUnsortedData, s.Symbol, i, s.Ticks[i].TimeStamp, s.Ticks[i-1].TimeStamp)
		}
	}
	for i := 1; i < len(s.Bars); i++ {
		if s.Bars[i].TimeStamp.Before(s.Bars[i-1].TimeStamp) {
			return fmt.Errorf("%w: %s bar %d at %s precedes %s",
				ErrUnsortedData, s.Symbol, i, s.Bars[i].TimeStamp, s.Bars[i-1].TimeStamp)
		}
	}
	return nil
}

func (s Series) Empty() bool {
	return len(s.Ticks) == 0 && len(s.Bars) == 0
}
