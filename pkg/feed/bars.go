package feed

import (
	"errors"
	"time"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const builderSourceName = "feed.bars"

type PriceMode int

const (
	PriceModeMid PriceMode = iota
	PriceModeBid
	PriceModeAsk
)

func (m PriceMode) price(tick common.Tick) fixed.Point {
	switch m {
	case PriceModeBid:
		return tick.Bid
	case PriceModeAsk:
		return tick.Ask
	default:
		return tick.Mid()
	}
}

// BuildBars aggregates a tick series into period-aligned bars. Each bar is
// stamped with the start of its period and carries the summed tick volume.
// Periods must divide evenly into the wall clock, e.g. time.Minute or
// 5 * time.Minute.
func BuildBars(series Series, period time.Duration, mode PriceMode) (Series, error) {
	if period <= 0 {
		return Series{}, errors.New("feed: bar period must be positive")
	}

	var (
		bars    []common.Bar
		current *common.Bar
	)

	for _, tick := range series.Ticks {
		price := mode.price(tick)
		volume := tick.BidVolume.Add(tick.AskVolume)
		periodStart := tick.TimeStamp.Truncate(period)

		if current != nil && !periodStart.Equal(current.TimeStamp) {
			bars = append(bars, *current)
			current = nil
		}

		if current == nil {
			current = &common.Bar{
				Open:      price,
				High:      price,
				Low:       price,
				Close:     price,
				Volume:    volume,
				Source:    builderSourceName,
				Symbol:    series.Symbol,
				Period:    period,
				TimeStamp: periodStart,
			}
			continue
		}

		current.High = current.High.Max(price)
		current.Low = current.Low.Min(price)
		current.Close = price
		current.Volume = current.Volume.Add(volume)
	}

	if current != nil {
		bars = append(bars, *current)
	}

	return NewSeries(series.Symbol, nil, bars)
}
