// Package risk validates orders against account and position constraints
// before they reach the matching engine. The gate holds no mutable state of
// its own; every check runs against a portfolio snapshot, and its verdict is
// final for that order version.
package risk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/exchange"
	"github.com/quantfabric/replay/pkg/portfolio"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

var (
	ErrInsufficientFunds = errors.New("risk: insufficient free balance for order margin")
	ErrPositionLimit     = errors.New("risk: position limit breached")
	ErrSelfMatch         = errors.New("risk: order would cross own resting order")
)

type Configuration struct {
	// MaxPositionQuantity caps the absolute net exposure per instrument,
	// counting same-direction resting orders. Zero means unlimited.
	MaxPositionQuantity fixed.Point

	// PreventSelfMatch rejects orders that would execute against the
	// account's own resting orders.
	PreventSelfMatch bool
}

type Gate struct {
	catalog        *exchange.Catalog
	cfg            Configuration
	positionLimits map[string]fixed.Point
}

type Option func(*Gate)

// WithPositionLimit overrides the global quantity cap for one instrument.
func WithPositionLimit(symbol string, limit fixed.Point) Option {
	return func(g *Gate) {
		g.positionLimits[strings.ToUpper(symbol)] = limit
	}
}

func NewGate(catalog *exchange.Catalog, cfg Configuration, options ...Option) *Gate {
	g := &Gate{
		catalog:        catalog,
		cfg:            cfg,
		positionLimits: make(map[string]fixed.Point),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Check validates an order against the current portfolio snapshot and the
// engine's resting orders for the same instrument. refPrice is the price the
// order would plausibly execute at: the limit or stop price when present,
// the current mark otherwise.
func (g *Gate) Check(order common.Order, refPrice fixed.Point, snap portfolio.Snapshot, resting []common.Order) error {
	if err := g.checkPositionLimit(order, snap, resting); err != nil {
		return err
	}
	if g.cfg.PreventSelfMatch {
		if err := checkSelfMatch(order, resting); err != nil {
			return err
		}
	}
	return g.checkMargin(order, refPrice, snap)
}

func (g *Gate) positionLimit(symbol string) fixed.Point {
	if limit, ok := g.positionLimits[strings.ToUpper(symbol)]; ok {
		return limit
	}
	return g.cfg.MaxPositionQuantity
}

func (g *Gate) checkPositionLimit(order common.Order, snap portfolio.Snapshot, resting []common.Order) error {
	limit := g.positionLimit(order.Symbol)
	if limit.IsZero() {
		return nil
	}

	exposure := fixed.Zero
	if position, ok := snap.Positions[order.Symbol]; ok {
		exposure = position.Quantity
	}
	for _, open := range resting {
		remaining := open.Remaining()
		if open.Side == common.OrderSideSell {
			remaining = remaining.Neg()
		}
		exposure = exposure.Add(remaining)
	}

	orderQty := order.Quantity
	if order.Side == common.OrderSideSell {
		orderQty = orderQty.Neg()
	}

	if projected := exposure.Add(orderQty).Abs(); projected.Gt(limit) {
		return fmt.Errorf("%w: projected %s exceeds limit %s for %s",
			ErrPositionLimit, projected, limit, order.Symbol)
	}
	return nil
}

// checkSelfMatch rejects orders that would trade against the account's own
// resting orders on the opposite side. Market orders cross anything resting;
// limit orders cross when the prices overlap.
func checkSelfMatch(order common.Order, resting []common.Order) error {
	for _, open := range resting {
		if open.Side == order.Side {
			continue
		}
		if order.Type == common.OrderTypeMarket || open.Type == common.OrderTypeMarket {
			return fmt.Errorf("%w: resting order %d", ErrSelfMatch, open.ID)
		}
		if order.Type == common.OrderTypeLimit && open.Type == common.OrderTypeLimit {
			buy, sell := order, open
			if order.Side == common.OrderSideSell {
				buy, sell = open, order
			}
			if buy.LimitPrice.Gte(sell.LimitPrice) {
				return fmt.Errorf("%w: resting order %d", ErrSelfMatch, open.ID)
			}
		}
	}
	return nil
}

// checkMargin requires the order's notional divided by instrument leverage
// to fit in the balance left free by open positions.
func (g *Gate) checkMargin(order common.Order, refPrice fixed.Point, snap portfolio.Snapshot) error {
	info, err := g.catalog.Lookup(order.Symbol)
	if err != nil {
		return err
	}

	price := refPrice
	switch order.Type {
	case common.OrderTypeLimit:
		price = order.LimitPrice
	case common.OrderTypeStop:
		price = order.StopPrice
	}
	if !price.IsPos() {
		return fmt.Errorf("%w: no reference price for %s", ErrInsufficientFunds, order.Symbol)
	}

	required := marginFor(info, order.Quantity, price)

	used := fixed.Zero
	for symbol, position := range snap.Positions {
		posInfo, lookupErr := g.catalog.Lookup(symbol)
		if lookupErr != nil {
			continue
		}
		used = used.Add(marginFor(posInfo, position.Quantity.Abs(), position.AvgPrice))
	}

	free := snap.Account.Balance.Sub(used)
	if required.Gt(free) {
		return fmt.Errorf("%w: required %s, free %s", ErrInsufficientFunds, required, free)
	}
	return nil
}

func marginFor(info exchange.SymbolInfo, quantity, price fixed.Point) fixed.Point {
	notional := quantity.Mul(price)
	if !info.ContractSize.IsZero() {
		notional = notional.Mul(info.ContractSize)
	}
	if info.Leverage.IsPos() {
		return notional.Div(info.Leverage)
	}
	return notional
}
