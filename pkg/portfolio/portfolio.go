// Package portfolio owns all position and account state. Positions are
// created, resized and closed exclusively by applying fills; nothing else in
// the engine may touch the account.
package portfolio

import (
	"errors"
	"fmt"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

var ErrDuplicateFill = errors.New("portfolio: fill already applied")

// ApplyResult reports what a fill did to the book, so the caller can emit
// the matching position lifecycle events and record closed trades.
type ApplyResult struct {
	Position common.Position
	Realized fixed.Point
	Opened   bool
	Closed   bool
}

type Portfolio struct {
	account      common.Account
	startCapital fixed.Point
	positions    map[string]*common.Position
	appliedFills map[common.FillID]struct{}
}

func New(currency string, startCapital fixed.Point) *Portfolio {
	return &Portfolio{
		account: common.Account{
			Currency: currency,
			Balance:  startCapital,
		},
		startCapital: startCapital,
		positions:    make(map[string]*common.Position),
		appliedFills: make(map[common.FillID]struct{}),
	}
}

// Apply books one fill using weighted-average-price accounting. Increasing
// exposure re-averages the entry price; reducing or reversing books realized
// PnL against the prior average. Commissions always hit the balance. A fill
// id seen before fails with ErrDuplicateFill and changes nothing.
func (p *Portfolio) Apply(fill common.Fill) (ApplyResult, error) {
	if _, seen := p.appliedFills[fill.ID]; seen {
		return ApplyResult{}, fmt.Errorf("%w: fill %d for order %d", ErrDuplicateFill, fill.ID, fill.OrderID)
	}
	p.appliedFills[fill.ID] = struct{}{}

	var result ApplyResult
	signedQty := fill.SignedQuantity()

	position, ok := p.positions[fill.Symbol]
	if !ok {
		position = &common.Position{
			Symbol:   fill.Symbol,
			AvgPrice: fill.Price,
			OpenTime: fill.TimeStamp,
		}
		p.positions[fill.Symbol] = position
		result.Opened = true
	}

	oldQty := position.Quantity
	newQty := oldQty.Add(signedQty)

	switch {
	case oldQty.IsZero() || oldQty.Sign() == signedQty.Sign():
		// Opening or increasing exposure: weighted-average entry price.
		notional := oldQty.Mul(position.AvgPrice).Add(signedQty.Mul(fill.Price))
		position.AvgPrice = notional.Div(newQty)

	case newQty.IsZero() || newQty.Sign() == oldQty.Sign():
		// Reducing or flat-closing: realize against the prior average.
		closedQty := signedQty.Neg()
		result.Realized = fill.Price.Sub(position.AvgPrice).Mul(closedQty)

	default:
		// Reversal: the old exposure closes in full, the remainder opens a
		// fresh position at the fill price.
		result.Realized = fill.Price.Sub(position.AvgPrice).Mul(oldQty)
		position.AvgPrice = fill.Price
		position.OpenTime = fill.TimeStamp
	}

	position.Quantity = newQty
	position.UpdatedAt = fill.TimeStamp

	p.account.Balance = p.account.Balance.Add(result.Realized).Sub(fill.Commission)
	p.account.RealizedPnL = p.account.RealizedPnL.Add(result.Realized)
	p.account.Commissions = p.account.Commissions.Add(fill.Commission)

	result.Position = *position
	if newQty.IsZero() {
		delete(p.positions, fill.Symbol)
		result.Closed = true
	}

	return result, nil
}

// UnrealizedPnL values all open positions against the supplied marks. A
// missing mark values the position at its entry price, contributing zero.
func (p *Portfolio) UnrealizedPnL(marks map[string]fixed.Point) fixed.Point {
	total := fixed.Zero
	for symbol, position := range p.positions {
		if mark, ok := marks[symbol]; ok {
			total = total.Add(position.UnrealizedPnL(mark))
		}
	}
	return total
}

// Equity is the account balance plus unrealized PnL, the invariant every
// observation point must satisfy.
func (p *Portfolio) Equity(marks map[string]fixed.Point) fixed.Point {
	return p.account.Balance.Add(p.UnrealizedPnL(marks))
}

func (p *Portfolio) Account() common.Account {
	return p.account
}

func (p *Portfolio) Position(symbol string) (common.Position, bool) {
	position, ok := p.positions[symbol]
	if !ok {
		return common.Position{}, false
	}
	return *position, true
}

func (p *Portfolio) StartCapital() fixed.Point {
	return p.startCapital
}

// Snapshot is the read-only view handed to the risk gate and strategies.
type Snapshot struct {
	Account   common.Account
	Positions map[string]common.Position
}

func (p *Portfolio) Snapshot() Snapshot {
	positions := make(map[string]common.Position, len(p.positions))
	for symbol, position := range p.positions {
		positions[symbol] = *position
	}
	return Snapshot{
		Account:   p.account,
		Positions: positions,
	}
}

// Reset restores an empty book with the starting capital, retaining the
// configured currency.
func (p *Portfolio) Reset() {
	p.account = common.Account{
		Currency: p.account.Currency,
		Balance:  p.startCapital,
	}
	p.positions = make(map[string]*common.Position)
	p.appliedFills = make(map[common.FillID]struct{})
}
