package common

import (
	"time"

	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type FillID = uint64

// Fill is the immutable record of an order, or part of one, being executed.
// A single order may produce several fills; the sum of their quantities never
// exceeds the order quantity.
type Fill struct {
	ID         FillID      `json:"id"`
	OrderID    OrderID     `json:"order_id"`
	Symbol     string      `json:"symbol"`
	Side       OrderSide   `json:"side"`
	Quantity   fixed.Point `json:"quantity"`
	Price      fixed.Point `json:"price"`
	Commission fixed.Point `json:"commission"`
	TimeStamp  time.Time   `json:"ts"`
}

// SignedQuantity is the fill quantity with the side applied, positive for
// buys and negative for sells.
func (f Fill) SignedQuantity() fixed.Point {
	if f.Side == OrderSideSell {
		return f.Quantity.Neg()
	}
	return f.Quantity
}

// Notional is the cash value of the executed quantity.
func (f Fill) Notional() fixed.Point {
	return f.Quantity.Mul(f.Price)
}
