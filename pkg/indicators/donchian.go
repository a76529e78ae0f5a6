package indicators

import (
	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/circular"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

// Donchian tracks the highest high and lowest low over a bar window. The
// middle band is the midpoint of the two.
type Donchian struct {
	highs *circular.Buffer[fixed.Point]
	lows  *circular.Buffer[fixed.Point]
}

func NewDonchian(window int) *Donchian {
	return &Donchian{
		highs: circular.NewBuffer[fixed.Point](window),
		lows:  circular.NewBuffer[fixed.Point](window),
	}
}

func (d *Donchian) OnBar(bar common.Bar) {
	d.highs.Push(bar.High)
	d.lows.Push(bar.Low)
}

func (d *Donchian) Ready() bool {
	return d.highs.Full()
}

// Upper returns the highest high in the window.
func (d *Donchian) Upper() (fixed.Point, error) {
	if !d.Ready() {
		return fixed.Point{}, ErrNotReady
	}
	upper := d.highs.Latest()
	for _, h := range d.highs.Window() {
		upper = upper.Max(h)
	}
	return upper, nil
}

// Lower returns the lowest low in the window.
func (d *Donchian) Lower() (fixed.Point, error) {
	if !d.Ready() {
		return fixed.Point{}, ErrNotReady
	}
	lower := d.lows.Latest()
	for _, l := range d.lows.Window() {
		lower = lower.Min(l)
	}
	return lower, nil
}

// Middle returns the midpoint between the upper and lower bands.
func (d *Donchian) Middle() (fixed.Point, error) {
	upper, err := d.Upper()
	if err != nil {
		return fixed.Point{}, err
	}
	lower, err := d.Lower()
	if err != nil {
		return fixed.Point{}, err
	}
	return upper.Add(lower).DivInt(2), nil
}
