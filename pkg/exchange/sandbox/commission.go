package sandbox

import (
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

// CommissionModel prices one fill as a function of its notional value.
type CommissionModel interface {
	Commission(notional fixed.Point) fixed.Point
}

// RateCommission charges a flat rate of notional with an optional per-fill
// minimum.
type RateCommission struct {
	Rate    fixed.Point // e.g. 0.0002 for 2 bps
	Minimum fixed.Point
}

func (c RateCommission) Commission(notional fixed.Point) fixed.Point {
	fee := notional.Abs().Mul(c.Rate)
	return fee.Max(c.Minimum)
}

// NoCommission is the default for frictionless runs.
type NoCommission struct{}

func (NoCommission) Commission(fixed.Point) fixed.Point {
	return fixed.Zero
}
