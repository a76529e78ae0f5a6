package indicators

import (
	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

// Atr is the Wilder-smoothed average true range over a bar window. The first
// true range seeds the average; every later bar folds in with weight 1/window.
type Atr struct {
	window int

	lastClose fixed.Point
	value     fixed.Point
	seen      int
}

func NewAtr(window int) *Atr {
	return &Atr{window: window}
}

func (a *Atr) OnBar(bar common.Bar) {
	defer func() {
		a.lastClose = bar.Close
	}()

	if a.lastClose.IsZero() {
		return
	}

	tr := bar.High.Sub(bar.Low).Abs()
	tr = tr.Max(bar.High.Sub(a.lastClose).Abs())
	tr = tr.Max(bar.Low.Sub(a.lastClose).Abs())

	if a.seen == 0 {
		a.value = tr
	} else {
		a.value = a.value.MulInt(a.window - 1).Add(tr).DivInt(a.window)
	}
	a.seen++
}

func (a *Atr) Ready() bool {
	return a.seen >= a.window
}

func (a *Atr) Value() (fixed.Point, error) {
	if !a.Ready() {
		return fixed.Point{}, ErrNotReady
	}
	return a.value, nil
}
