// Package indicators holds streaming technical indicators. Each indicator is
// updated point by point and reports when it has seen a full window.
package indicators

import (
	"errors"

	"github.com/quantfabric/replay/pkg/utility/circular"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

var (
	ErrNotReady   = errors.New("indicators: not enough data")
	ErrFlatWindow = errors.New("indicators: zero deviation in window")
)

// ZScore measures how many standard deviations the latest value sits from the
// rolling mean of its window.
type ZScore struct {
	window *circular.Rolling
}

func NewZScore(window int) *ZScore {
	return &ZScore{window: circular.NewRolling(window)}
}

func (z *ZScore) Update(value fixed.Point) {
	z.window.Push(value)
}

func (z *ZScore) Ready() bool {
	return z.window.Full()
}

func (z *ZScore) Value() (fixed.Point, error) {
	if !z.Ready() {
		return fixed.Point{}, ErrNotReady
	}
	stdDev := z.window.StdDev()
	if stdDev.IsZero() {
		return fixed.Point{}, ErrFlatWindow
	}
	return z.window.Latest().Sub(z.window.Mean()).Div(stdDev), nil
}
