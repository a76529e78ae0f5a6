package common

import (
	"fmt"
	"time"

	"github.com/quantfabric/replay/pkg/utility"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type OrderID = uint64

type OrderSide int
type OrderType int
type OrderStatus int

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

func (s OrderSide) String() string {
	if s == OrderSideBuy {
		return "buy"
	}
	return "sell"
}

// Sign is +1 for buys and -1 for sells, the factor applied to quantities when
// they enter position accounting.
func (s OrderSide) Sign() int {
	if s == OrderSideBuy {
		return 1
	}
	return -1
}

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStop
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	case OrderTypeStop:
		return "stop"
	}
	return "unknown"
}

const (
	OrderStatusInitialized OrderStatus = iota
	OrderStatusSubmitted
	OrderStatusAccepted
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusRejected
	OrderStatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInitialized:
		return "initialized"
	case OrderStatusSubmitted:
		return "submitted"
	case OrderStatusAccepted:
		return "accepted"
	case OrderStatusPartiallyFilled:
		return "partially-filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusExpired:
		return "expired"
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// CanTransition enumerates the one-directional order lifecycle. The only
// permitted re-entry is partially-filled to partially-filled.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusInitialized:
		return next == OrderStatusSubmitted
	case OrderStatusSubmitted:
		return next == OrderStatusAccepted || next == OrderStatusRejected
	case OrderStatusAccepted:
		switch next {
		case OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired:
			return true
		}
		return false
	case OrderStatusPartiallyFilled:
		return next == OrderStatusPartiallyFilled || next == OrderStatusFilled
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return false
	}
	return false
}

type Order struct {
	ID             OrderID     `json:"id"`
	Side           OrderSide   `json:"side"`
	Type           OrderType   `json:"type"`
	Status         OrderStatus `json:"status"`
	Quantity       fixed.Point `json:"quantity"`
	FilledQuantity fixed.Point `json:"filled_quantity"`
	LimitPrice     fixed.Point `json:"limit_price,omitempty"`
	StopPrice      fixed.Point `json:"stop_price,omitempty"`
	ExpireTime     time.Time   `json:"expire_time,omitempty"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Transition moves the order to the next status, enforcing the lifecycle.
func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("order %d: illegal status transition %s -> %s", o.ID, o.Status, next)
	}
	o.Status = next
	return nil
}

// Remaining is the unexecuted portion of the order quantity.
func (o Order) Remaining() fixed.Point {
	return o.Quantity.Sub(o.FilledQuantity)
}

type OrderAccepted struct {
	Order Order `json:"order"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type OrderRejected struct {
	Order  Order  `json:"order"`
	Reason string `json:"reason,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type OrderCancelled struct {
	Order             Order       `json:"order"`
	CancelledQuantity fixed.Point `json:"cancelled_quantity"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
