package common

import (
	"time"

	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type PositionSide int

const (
	PositionSideLong PositionSide = iota
	PositionSideShort
	PositionSideFlat
)

// Position is the per-instrument net exposure, owned exclusively by the
// portfolio and mutated only by applying fills.
type Position struct {
	Symbol    string      `json:"symbol"`
	Quantity  fixed.Point `json:"quantity"` // signed, negative = short
	AvgPrice  fixed.Point `json:"avg_price"`
	OpenTime  time.Time   `json:"open_time"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (p Position) Side() PositionSide {
	switch {
	case p.Quantity.IsPos():
		return PositionSideLong
	case p.Quantity.IsNeg():
		return PositionSideShort
	}
	return PositionSideFlat
}

// UnrealizedPnL values the open exposure against a mark price.
func (p Position) UnrealizedPnL(mark fixed.Point) fixed.Point {
	return mark.Sub(p.AvgPrice).Mul(p.Quantity)
}
