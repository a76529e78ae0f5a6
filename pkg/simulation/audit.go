package simulation

import (
	"time"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/portfolio"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type accountSnapshot struct {
	balance fixed.Point
	equity  fixed.Point
	t       time.Time
}

// Trade is one round trip on an instrument, from the fill that opened the
// position to the fill that flattened it. NetProfit is realized PnL minus
// the commissions paid on every fill in between.
type Trade struct {
	Symbol    string
	OpenTime  time.Time
	CloseTime time.Time
	NetProfit fixed.Point
	FillCount int
}

type openTrade struct {
	openTime time.Time
	net      fixed.Point
	fills    int
}

// Audit accumulates the equity curve, the fill and order logs and the
// closed-trade history of a run. It is the single source the performance
// report is generated from.
type Audit struct {
	minSnapshotInterval time.Duration

	accountSnapshots []accountSnapshot
	closedTrades     []Trade
	fills            []common.Fill
	orders           []common.Order

	openTrades map[string]*openTrade
}

func NewAudit(minSnapshotInterval time.Duration) *Audit {
	return &Audit{
		minSnapshotInterval: minSnapshotInterval,
		openTrades:          make(map[string]*openTrade),
	}
}

func (a *Audit) AddAccountSnapshot(balance, equity fixed.Point, t time.Time) {
	if len(a.accountSnapshots) == 0 ||
		t.Sub(a.accountSnapshots[len(a.accountSnapshots)-1].t) >= a.minSnapshotInterval {
		a.addSnapshot(balance, equity, t)
	}
}

// ForceAccountSnapshot records a snapshot regardless of the throttle, so the
// final account state always terminates the equity curve.
func (a *Audit) ForceAccountSnapshot(balance, equity fixed.Point, t time.Time) {
	a.addSnapshot(balance, equity, t)
}

// RecordFill appends the fill to the log and folds it into the round trip it
// belongs to. A fill that flattens the position closes the trade.
func (a *Audit) RecordFill(fill common.Fill, result portfolio.ApplyResult) {
	a.fills = append(a.fills, fill)

	trade, ok := a.openTrades[fill.Symbol]
	if !ok {
		trade = &openTrade{openTime: result.Position.OpenTime}
		a.openTrades[fill.Symbol] = trade
	}
	trade.net = trade.net.Add(result.Realized).Sub(fill.Commission)
	trade.fills++

	if result.Closed {
		a.closedTrades = append(a.closedTrades, Trade{
			Symbol:    fill.Symbol,
			OpenTime:  trade.openTime,
			CloseTime: fill.TimeStamp,
			NetProfit: trade.net,
			FillCount: trade.fills,
		})
		delete(a.openTrades, fill.Symbol)
	}
}

// RecordOrder logs an order that reached a terminal status. Wired as the
// matching engine terminal hook; pre-trade risk rejections are recorded
// through the same path by the orchestrator.
func (a *Audit) RecordOrder(order common.Order) {
	a.orders = append(a.orders, order)
}

func (a *Audit) Trades() []Trade        { return a.closedTrades }
func (a *Audit) Fills() []common.Fill   { return a.fills }
func (a *Audit) Orders() []common.Order { return a.orders }

// EquityCurve returns the recorded equity values in snapshot order.
func (a *Audit) EquityCurve() []fixed.Point {
	curve := make([]fixed.Point, 0, len(a.accountSnapshots))
	for _, snapshot := range a.accountSnapshots {
		curve = append(curve, snapshot.equity)
	}
	return curve
}

func (a *Audit) GenerateReport() Report {

	report := Report{}

	if len(a.accountSnapshots) == 0 {
		return report
	}

	auditedDays := a.dayCount()
	year := fixed.FromInt(365)

	report.InitialEquity = a.accountSnapshots[0].equity
	report.StartDate = a.accountSnapshots[0].t
	report.FinalEquity = a.accountSnapshots[len(a.accountSnapshots)-1].equity
	report.EndDate = a.accountSnapshots[len(a.accountSnapshots)-1].t

	// --- Return Metrics ---
	if report.InitialEquity.IsPos() {
		report.TotalProfit = report.FinalEquity.Div(report.InitialEquity).Sub(fixed.One).MulInt64(100).Rescale(2)
	}
	if auditedDays > 0 && report.InitialEquity.Gt(fixed.Zero) && report.FinalEquity.Gt(fixed.Zero) {
		ratio := report.FinalEquity.Div(report.InitialEquity)
		exponent := year.DivInt64(int64(auditedDays))
		report.AnnualizedReturn = ratio.Pow(exponent).Sub(fixed.One).MulInt64(100).Rescale(2)
	}

	// --- Max Drawdown ---
	maxEquity := report.InitialEquity
	for _, snapshot := range a.accountSnapshots {
		if snapshot.equity.Gt(maxEquity) {
			maxEquity = snapshot.equity
		}
		if !maxEquity.IsPos() {
			continue
		}
		drawdown := maxEquity.Sub(snapshot.equity).Div(maxEquity)
		if drawdown.Gt(report.MaxDrawdown) {
			report.MaxDrawdown = drawdown
		}
	}

	// --- Trade Statistics ---
	var (
		totalDuration time.Duration
		totalProfit   fixed.Point
		totalLoss     fixed.Point
	)
	for _, trade := range a.closedTrades {
		report.TotalTrades++

		if trade.CloseTime.After(trade.OpenTime) {
			totalDuration += trade.CloseTime.Sub(trade.OpenTime)
		}

		if trade.NetProfit.Gt(fixed.Zero) {
			totalProfit = totalProfit.Add(trade.NetProfit)
			report.WinningTrades++
		} else {
			totalLoss = totalLoss.Add(trade.NetProfit.Neg())
			report.LosingTrades++
		}
	}

	// --- Averages & Ratios ---
	if report.WinningTrades > 0 {
		report.AverageWin = totalProfit.DivInt64(int64(report.WinningTrades))
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLoss.DivInt64(int64(report.LosingTrades))
	}
	if totalLoss.Gt(fixed.Zero) {
		report.ProfitFactor = totalProfit.Div(totalLoss)
	}
	if report.AverageLoss.Gt(fixed.Zero) {
		report.RiskRewardRatio = report.AverageWin.Div(report.AverageLoss)
	}
	if report.TotalTrades > 0 {
		report.Expectancy = totalProfit.Sub(totalLoss).DivInt64(int64(report.TotalTrades))
		report.AverageTradeDuration = totalDuration / time.Duration(report.TotalTrades)
		report.WinRate = fixed.FromInt(report.WinningTrades).DivInt64(int64(report.TotalTrades)).MulInt64(100).Rescale(2)
	}
	if report.MaxDrawdown.Gt(fixed.Zero) {
		report.RecoveryFactor = report.TotalProfit.Div(report.MaxDrawdown.MulInt64(100))
	}
	report.MaxDrawdown = report.MaxDrawdown.MulInt64(100).Rescale(2)

	// --- Risk Metrics: Volatility, Sharpe, Sortino ---
	dailyReturns := a.dailyReturns()
	meanReturn := fixed.Mean(dailyReturns)
	vol := fixed.StdDev(dailyReturns, meanReturn)

	if !meanReturn.IsZero() && !vol.IsZero() {
		report.AnnualizedVolatility = vol.Mul(fixed.Sqrt252).MulInt64(100).Rescale(2)
		report.SharpeRatio = fixed.SharpeRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		report.SortinoRatio = fixed.SortinoRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return report
}

func (a *Audit) Reset() {
	a.accountSnapshots = nil
	a.closedTrades = nil
	a.fills = nil
	a.orders = nil
	a.openTrades = make(map[string]*openTrade)
}

func (a *Audit) addSnapshot(balance, equity fixed.Point, t time.Time) {
	a.accountSnapshots = append(a.accountSnapshots, accountSnapshot{
		balance: balance,
		equity:  equity,
		t:       t,
	})
}

func (a *Audit) dayCount() int {
	if len(a.accountSnapshots) < 2 {
		return 1
	}
	start := a.accountSnapshots[0].t
	end := a.accountSnapshots[len(a.accountSnapshots)-1].t
	return int(end.Sub(start).Hours()/24) + 1
}

func (a *Audit) dailyReturns() []fixed.Point {
	var dailyReturns []fixed.Point
	if len(a.accountSnapshots) < 2 {
		return dailyReturns
	}

	var (
		prevDate   = a.accountSnapshots[0].t.Truncate(24 * time.Hour)
		prevEquity = a.accountSnapshots[0].equity
	)

	for _, snapshot := range a.accountSnapshots[1:] {
		currDate := snapshot.t.Truncate(24 * time.Hour)

		if currDate.After(prevDate) {
			ret := snapshot.equity.Div(prevEquity).Sub(fixed.One)
			dailyReturns = append(dailyReturns, ret)

			prevDate = currDate
			prevEquity = snapshot.equity
		}
	}

	return dailyReturns
}
