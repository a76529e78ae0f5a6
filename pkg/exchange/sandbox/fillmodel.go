package sandbox

import (
	"math/rand"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

// Execution is one slice of an order the fill model decides to execute.
type Execution struct {
	Quantity fixed.Point
	Price    fixed.Point
}

// FillModel decides whether, how much of, and at what price a triggered
// order executes. basePrice is the engine-determined reference: the touched
// side of the book for market and stop orders, the better of limit and
// market for limit orders. Models must be deterministic for a given rng
// seed; the engine owns and sequences the rng.
type FillModel interface {
	Evaluate(order common.Order, basePrice fixed.Point, rng *rand.Rand) []Execution
}

// InstantFill executes the full remaining quantity in one piece, worsened by
// a fixed slippage for market and stop orders. Limit prices are never
// worsened; the engine clamps limit executions to the limit.
type InstantFill struct {
	Slippage fixed.Point
}

func (m InstantFill) Evaluate(order common.Order, basePrice fixed.Point, _ *rand.Rand) []Execution {
	price := basePrice
	if order.Type != common.OrderTypeLimit && !m.Slippage.IsZero() {
		if order.Side == common.OrderSideBuy {
			price = price.Add(m.Slippage)
		} else {
			price = price.Sub(m.Slippage)
		}
	}
	return []Execution{{Quantity: order.Remaining(), Price: price}}
}

// StochasticFill models a book with finite depth: an order may not fill on a
// given evaluation, may fill partially, and pays randomized slippage up to a
// cap. Seeded runs reproduce identical outcomes.
type StochasticFill struct {
	FillProbability    float64     // chance a triggered order executes at all this event
	PartialProbability float64     // chance the execution is split
	MinPortion         float64     // lower bound of the partial portion (0..1]
	MaxSlippage        fixed.Point // worst-case price degradation for market/stop
}

func (m StochasticFill) Evaluate(order common.Order, basePrice fixed.Point, rng *rand.Rand) []Execution {
	if m.FillProbability < 1 && rng.Float64() >= m.FillProbability {
		return nil
	}

	quantity := order.Remaining()
	if m.PartialProbability > 0 && rng.Float64() < m.PartialProbability {
		portion := m.MinPortion + (1-m.MinPortion)*rng.Float64()
		quantity = quantity.Mul(fixed.FromFloat64(portion)).Rescale(8)
		if quantity.IsZero() {
			return nil
		}
	}

	price := basePrice
	if order.Type != common.OrderTypeLimit && !m.MaxSlippage.IsZero() {
		slip := m.MaxSlippage.Mul(fixed.FromFloat64(rng.Float64())).Rescale(8)
		if order.Side == common.OrderSideBuy {
			price = price.Add(slip)
		} else {
			price = price.Sub(slip)
		}
	}

	return []Execution{{Quantity: quantity, Price: price}}
}
