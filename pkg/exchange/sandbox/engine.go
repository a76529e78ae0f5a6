// Package sandbox is the simulated matching engine. It holds resting orders,
// re-evaluates them against every market event, and turns them into fills
// under a pluggable fill model and commission calculator.
package sandbox

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/clock"
	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/exchange"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/utility"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const engineComponentName = "exchange.sandbox.engine"

var (
	ErrRejected      = errors.New("sandbox: order rejected")
	ErrInvalidCancel = errors.New("sandbox: order cannot be cancelled")
)

// quote is the engine's view of the current market for one instrument. Bar
// events collapse to their close on both sides.
type quote struct {
	bid, ask  fixed.Point
	timeStamp time.Time
}

// TerminalFunc receives every order that reaches a terminal status, so the
// orchestrator can move it to the historical order log.
type TerminalFunc func(common.Order)

type Engine struct {
	router     *bus.Router
	clock      *clock.Clock
	catalog    *exchange.Catalog
	fillModel  FillModel
	commission CommissionModel

	seed int64
	rng  *rand.Rand

	orderSeq utility.Sequence
	fillSeq  utility.Sequence

	resting    []*common.Order // kept in submission order for deterministic evaluation
	quotes     map[string]quote
	onTerminal TerminalFunc
}

func NewEngine(router *bus.Router, simClock *clock.Clock, catalog *exchange.Catalog, options ...Option) *Engine {
	e := &Engine{
		router:     router,
		clock:      simClock,
		catalog:    catalog,
		fillModel:  InstantFill{},
		commission: NoCommission{},
		quotes:     make(map[string]quote),
	}

	for _, option := range options {
		option(e)
	}

	e.rng = rand.New(rand.NewSource(e.seed))
	return e
}

// SetTerminalFunc installs the historical order log hook.
func (e *Engine) SetTerminalFunc(fn TerminalFunc) {
	e.onTerminal = fn
}

// NextOrderID reserves an identifier from the engine sequence. Callers that
// need to reference an order before submitting it (for example to log a
// pre-trade rejection) pre-assign the id and Submit keeps it.
func (e *Engine) NextOrderID() common.OrderID {
	return common.OrderID(e.orderSeq.Next())
}

// Submit validates the order and puts it on the resting book. Market orders
// rest too; they execute against the next market event for their instrument,
// which is the "next available price" rule.
func (e *Engine) Submit(order common.Order) (common.OrderID, error) {
	if order.ID == 0 {
		order.ID = e.NextOrderID()
	}
	order.Source = engineComponentName
	order.ExecutionID = utility.GetExecutionID()
	order.TimeStamp = e.clock.Now()

	if err := order.Transition(common.OrderStatusSubmitted); err != nil {
		return 0, err
	}

	if reason := e.validate(order); reason != "" {
		_ = order.Transition(common.OrderStatusRejected)
		e.postRejection(order, reason)
		e.terminal(order)
		return order.ID, fmt.Errorf("%w: %s", ErrRejected, reason)
	}

	if err := order.Transition(common.OrderStatusAccepted); err != nil {
		return 0, err
	}

	e.resting = append(e.resting, &order)

	if err := e.router.Post(bus.OrderAcceptedEvent, common.OrderAccepted{
		Order:       order,
		Source:      engineComponentName,
		ExecutionID: utility.GetExecutionID(),
		TimeStamp:   e.clock.Now(),
	}); err != nil {
		slog.Warn("unable to post order accepted event", "error", err)
	}

	return order.ID, nil
}

func (e *Engine) validate(order common.Order) string {
	if !e.catalog.Has(order.Symbol) {
		return fmt.Sprintf("unknown instrument %q", order.Symbol)
	}
	if !order.Quantity.IsPos() {
		return "quantity must be positive"
	}
	switch order.Type {
	case common.OrderTypeLimit:
		if !order.LimitPrice.IsPos() {
			return "limit price must be positive"
		}
	case common.OrderTypeStop:
		if !order.StopPrice.IsPos() {
			return "stop price must be positive"
		}
	}
	return ""
}

// OnMarketEvent refreshes the instrument quote and re-evaluates every
// resting order for that instrument, in submission order. Returned fills are
// in execution order and are bit-for-bit reproducible for a given seed.
func (e *Engine) OnMarketEvent(ev feed.Event) []common.Fill {
	symbol := strings.ToUpper(ev.Symbol())
	q := e.updateQuote(symbol, ev)

	var fills []common.Fill
	kept := e.resting[:0]

	for _, order := range e.resting {
		if !strings.EqualFold(order.Symbol, ev.Symbol()) {
			kept = append(kept, order)
			continue
		}

		if e.expireIfDue(order, q.timeStamp) {
			continue
		}

		basePrice, triggered := triggerPrice(*order, q)
		if !triggered {
			kept = append(kept, order)
			continue
		}

		fills = append(fills, e.execute(order, basePrice, q.timeStamp)...)
		if !order.Status.IsTerminal() {
			kept = append(kept, order)
		}
	}

	e.resting = kept
	return fills
}

func (e *Engine) updateQuote(symbol string, ev feed.Event) quote {
	var q quote
	if ev.Kind == feed.KindTick {
		q = quote{bid: ev.Tick.Bid, ask: ev.Tick.Ask, timeStamp: ev.Tick.TimeStamp}
	} else {
		q = quote{bid: ev.Bar.Close, ask: ev.Bar.Close, timeStamp: ev.Bar.TimeStamp}
	}
	e.quotes[symbol] = q
	return q
}

// triggerPrice decides whether the order executes against the quote, and at
// what reference price. Limit orders get the better of limit and market.
func triggerPrice(order common.Order, q quote) (fixed.Point, bool) {
	switch order.Type {
	case common.OrderTypeMarket:
		if order.Side == common.OrderSideBuy {
			return q.ask, true
		}
		return q.bid, true

	case common.OrderTypeLimit:
		if order.Side == common.OrderSideBuy {
			if q.ask.Lte(order.LimitPrice) {
				return q.ask.Min(order.LimitPrice), true
			}
		} else {
			if q.bid.Gte(order.LimitPrice) {
				return q.bid.Max(order.LimitPrice), true
			}
		}

	case common.OrderTypeStop:
		if order.Side == common.OrderSideBuy {
			if q.ask.Gte(order.StopPrice) {
				return q.ask, true
			}
		} else {
			if q.bid.Lte(order.StopPrice) {
				return q.bid, true
			}
		}
	}
	return fixed.Point{}, false
}

func (e *Engine) execute(order *common.Order, basePrice fixed.Point, ts time.Time) []common.Fill {
	executions := e.fillModel.Evaluate(*order, basePrice, e.rng)

	var fills []common.Fill
	for _, exec := range executions {
		qty := exec.Quantity.Min(order.Remaining())
		if !qty.IsPos() {
			continue
		}

		price := exec.Price
		// A limit order never executes worse than its limit.
		if order.Type == common.OrderTypeLimit {
			if order.Side == common.OrderSideBuy {
				price = price.Min(order.LimitPrice)
			} else {
				price = price.Max(order.LimitPrice)
			}
		}

		fill := common.Fill{
			ID:         common.FillID(e.fillSeq.Next()),
			OrderID:    order.ID,
			Symbol:     order.Symbol,
			Side:       order.Side,
			Quantity:   qty,
			Price:      price,
			Commission: e.commission.Commission(qty.Mul(price)),
			TimeStamp:  ts,
		}

		order.FilledQuantity = order.FilledQuantity.Add(qty)
		next := common.OrderStatusPartiallyFilled
		if order.Remaining().IsZero() {
			next = common.OrderStatusFilled
		}
		if err := order.Transition(next); err != nil {
			slog.Error("order status transition failed", "error", err, "order", order.ID)
			continue
		}

		fills = append(fills, fill)

		if err := e.router.Post(bus.OrderFilledEvent, fill); err != nil {
			slog.Warn("unable to post order filled event", "error", err)
		}
	}

	if order.Status.IsTerminal() {
		e.terminal(*order)
	}
	return fills
}

func (e *Engine) expireIfDue(order *common.Order, now time.Time) bool {
	if order.ExpireTime.IsZero() || now.Before(order.ExpireTime) {
		return false
	}
	if err := order.Transition(common.OrderStatusExpired); err != nil {
		// Partially filled orders run to completion rather than expire.
		return false
	}
	e.postCancellation(*order)
	e.terminal(*order)
	return true
}

// Cancel removes a resting order. Orders with any executed quantity, and
// orders already terminal or unknown, cannot be cancelled.
func (e *Engine) Cancel(id common.OrderID) error {
	for i, order := range e.resting {
		if order.ID != id {
			continue
		}
		if !order.FilledQuantity.IsZero() {
			return fmt.Errorf("%w: order %d has executions", ErrInvalidCancel, id)
		}
		if err := order.Transition(common.OrderStatusCancelled); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidCancel, err)
		}
		e.resting = append(e.resting[:i], e.resting[i+1:]...)
		e.postCancellation(*order)
		e.terminal(*order)
		return nil
	}
	return fmt.Errorf("%w: order %d is not resting", ErrInvalidCancel, id)
}

// RestingOrders returns copies of the open orders for one instrument, in
// submission order. The risk gate reads these for self-match prevention.
func (e *Engine) RestingOrders(symbol string) []common.Order {
	var orders []common.Order
	for _, order := range e.resting {
		if strings.EqualFold(order.Symbol, symbol) {
			orders = append(orders, *order)
		}
	}
	return orders
}

// LastQuote exposes the engine's current market view for valuation.
func (e *Engine) LastQuote(symbol string) (bid, ask fixed.Point, ok bool) {
	q, ok := e.quotes[strings.ToUpper(symbol)]
	return q.bid, q.ask, ok
}

// Reset restores the pre-run state: no resting orders, no quotes, id
// sequences at zero, and the rng re-seeded so a fresh run reproduces.
func (e *Engine) Reset() {
	e.resting = nil
	e.quotes = make(map[string]quote)
	e.orderSeq.Reset()
	e.fillSeq.Reset()
	e.rng = rand.New(rand.NewSource(e.seed))
}

func (e *Engine) terminal(order common.Order) {
	if e.onTerminal != nil {
		e.onTerminal(order)
	}
}

func (e *Engine) postRejection(order common.Order, reason string) {
	if err := e.router.Post(bus.OrderRejectedEvent, common.OrderRejected{
		Order:       order,
		Reason:      reason,
		Source:      engineComponentName,
		ExecutionID: utility.GetExecutionID(),
		TimeStamp:   e.clock.Now(),
	}); err != nil {
		slog.Warn("unable to post order rejected event", "error", err)
	}
}

func (e *Engine) postCancellation(order common.Order) {
	if err := e.router.Post(bus.OrderCancelledEvent, common.OrderCancelled{
		Order:             order,
		CancelledQuantity: order.Remaining(),
		Source:            engineComponentName,
		ExecutionID:       utility.GetExecutionID(),
		TimeStamp:         e.clock.Now(),
	}); err != nil {
		slog.Warn("unable to post order cancelled event", "error", err)
	}
}
