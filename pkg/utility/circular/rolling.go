package circular

import (
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

// Rolling maintains constant-time mean, variance and standard deviation over
// the last capacity values pushed, using running sums that are corrected as
// old values fall out of the window.
type Rolling struct {
	buf        *Buffer[fixed.Point]
	sum        fixed.Point
	sumSquares fixed.Point
}

func NewRolling(capacity int) *Rolling {
	return &Rolling{buf: NewBuffer[fixed.Point](capacity)}
}

func (r *Rolling) Push(value fixed.Point) {
	if r.buf.Full() {
		evicted := r.buf.Oldest()
		r.sum = r.sum.Sub(evicted)
		r.sumSquares = r.sumSquares.Sub(evicted.Mul(evicted))
	}
	r.buf.Push(value)
	r.sum = r.sum.Add(value)
	r.sumSquares = r.sumSquares.Add(value.Mul(value))
}

func (r *Rolling) Len() int            { return r.buf.Len() }
func (r *Rolling) Cap() int            { return r.buf.Cap() }
func (r *Rolling) Full() bool          { return r.buf.Full() }
func (r *Rolling) Latest() fixed.Point { return r.buf.Latest() }
func (r *Rolling) Sum() fixed.Point    { return r.sum }

func (r *Rolling) Mean() fixed.Point {
	if r.buf.Len() == 0 {
		return fixed.Zero
	}
	return r.sum.DivInt(r.buf.Len())
}

// Variance is the population variance of the window. Running-sum rounding
// can push the raw result fractionally below zero on a flat window; that is
// clamped.
func (r *Rolling) Variance() fixed.Point {
	n := r.buf.Len()
	if n == 0 {
		return fixed.Zero
	}
	mean := r.Mean()
	variance := r.sumSquares.DivInt(n).Sub(mean.Mul(mean))
	if variance.IsNeg() {
		return fixed.Zero
	}
	return variance
}

func (r *Rolling) StdDev() fixed.Point {
	return r.Variance().Sqrt()
}
