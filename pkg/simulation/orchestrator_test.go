package simulation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/clock"
	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/exchange"
	"github.com/quantfabric/replay/pkg/exchange/sandbox"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/portfolio"
	"github.com/quantfabric/replay/pkg/risk"
	"github.com/quantfabric/replay/pkg/strategy"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// scriptedStrategy emits pre-planned orders keyed by event arrival index and
// records every fill it is told about. OnStart rewinds the script so the
// same instance replays identically across Reset cycles.
type scriptedStrategy struct {
	strategy.Nop

	script  map[int][]common.Order
	onEvent func(i int)

	events int
	fills  []common.Fill
}

func (s *scriptedStrategy) OnStart(*strategy.Context) {
	s.events = 0
	s.fills = nil
}

func (s *scriptedStrategy) OnMarketEvent(_ *strategy.Context, _ feed.Event) []common.Order {
	i := s.events
	s.events++
	if s.onEvent != nil {
		s.onEvent(i)
	}
	return s.script[i]
}

func (s *scriptedStrategy) OnFill(_ *strategy.Context, fill common.Fill) {
	s.fills = append(s.fills, fill)
}

func marketOrder(side common.OrderSide, qty string) common.Order {
	return common.Order{
		Symbol:   "EURUSD",
		Side:     side,
		Type:     common.OrderTypeMarket,
		Quantity: fixed.MustParse(qty),
	}
}

// flatTicks produces n one-second ticks with bid == ask == 100 + i, so fill
// prices are exact and every expectation below is integer arithmetic.
func flatTicks(t *testing.T, n int) []feed.Series {
	t.Helper()
	ticks := make([]common.Tick, 0, n)
	for i := 0; i < n; i++ {
		price := fixed.FromInt(100 + i)
		ticks = append(ticks, common.Tick{
			Symbol:    "EURUSD",
			Bid:       price,
			Ask:       price,
			TimeStamp: baseTime.Add(time.Duration(i) * time.Second),
		})
	}
	s, err := feed.NewSeries("EURUSD", ticks, nil)
	require.NoError(t, err)
	return []feed.Series{s}
}

type fixture struct {
	router *bus.Router
	clock  *clock.Clock
	engine *sandbox.Engine
	book   *portfolio.Portfolio
	orch   *Orchestrator
	strat  *scriptedStrategy
}

func newFixture(t *testing.T, riskCfg risk.Configuration, cfg Configuration, series []feed.Series, strat *scriptedStrategy) *fixture {
	t.Helper()

	catalog := exchange.NewCatalog(exchange.SymbolInfo{
		SymbolName:    "EURUSD",
		SymbolId:      1,
		QuoteCurrency: "USD",
		Digits:        5,
		ContractSize:  fixed.One,
		Leverage:      fixed.FromInt(100),
	})

	router := bus.NewRouter(1024)
	simClock := clock.New(time.Time{})
	engine := sandbox.NewEngine(router, simClock, catalog, sandbox.WithSeed(42))
	gate := risk.NewGate(catalog, riskCfg)
	book := portfolio.New("USD", fixed.FromInt(10000))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	orch, err := New(logger, router, simClock, engine, gate, book, cfg, series, strat)
	require.NoError(t, err)

	return &fixture{
		router: router,
		clock:  simClock,
		engine: engine,
		book:   book,
		orch:   orch,
		strat:  strat,
	}
}

func defaultConfig() Configuration {
	return Configuration{
		Currency:     "USD",
		StartCapital: fixed.FromInt(10000),
		Resolution:   feed.ResolutionAll,
	}
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	strat := &scriptedStrategy{script: map[int][]common.Order{
		0: {marketOrder(common.OrderSideBuy, "10")},
		2: {marketOrder(common.OrderSideSell, "10")},
	}}
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), strat)

	err := f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, f.orch.State())

	// The buy rests at event 0 and fills against event 1 at 101; the sell
	// rests at event 2 and fills against event 3 at 103.
	require.Len(t, strat.fills, 2)
	assert.True(t, strat.fills[0].Price.Eq(fixed.FromInt(101)))
	assert.True(t, strat.fills[1].Price.Eq(fixed.FromInt(103)))

	assert.True(t, f.book.Account().Balance.Eq(fixed.FromInt(10020)))

	audit := f.orch.Audit()
	require.Len(t, audit.Trades(), 1)
	trade := audit.Trades()[0]
	assert.Equal(t, "EURUSD", trade.Symbol)
	assert.True(t, trade.NetProfit.Eq(fixed.FromInt(20)))
	assert.Equal(t, 2, trade.FillCount)
	assert.Equal(t, baseTime.Add(time.Second), trade.OpenTime)
	assert.Equal(t, baseTime.Add(3*time.Second), trade.CloseTime)

	require.Len(t, audit.Orders(), 2)
	for _, order := range audit.Orders() {
		assert.Equal(t, common.OrderStatusFilled, order.Status)
	}

	curve := audit.EquityCurve()
	require.NotEmpty(t, curve)
	assert.True(t, curve[len(curve)-1].Eq(fixed.FromInt(10020)))
}

func TestOrchestrator_InvalidRangeLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), &scriptedStrategy{})

	err := f.orch.Run(context.Background(), baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, StateBuilt, f.orch.State())

	err = f.orch.Run(context.Background(), baseTime, baseTime)
	assert.ErrorIs(t, err, ErrInvalidRange, "empty window")
	assert.Equal(t, StateBuilt, f.orch.State())

	// The rejected calls consumed nothing; a valid run still works.
	err = f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, f.orch.State())
}

func TestOrchestrator_WindowSkipsLeadingEvents(t *testing.T) {
	strat := &scriptedStrategy{}
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), strat)

	// Start two seconds in: events at +0s and +1s are never delivered.
	err := f.orch.Run(context.Background(), baseTime.Add(2*time.Second), baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, strat.events)
}

func TestOrchestrator_RunConsumedUntilReset(t *testing.T) {
	strat := &scriptedStrategy{script: map[int][]common.Order{
		0: {marketOrder(common.OrderSideBuy, "10")},
		2: {marketOrder(common.OrderSideSell, "10")},
	}}
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), strat)

	require.NoError(t, f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour)))
	firstBalance := f.book.Account().Balance
	firstFills := len(f.orch.Audit().Fills())

	err := f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, f.orch.Reset())
	assert.Equal(t, StateBuilt, f.orch.State())
	assert.True(t, f.book.Account().Balance.Eq(fixed.FromInt(10000)))

	// The rewound run reproduces the first one bit for bit.
	require.NoError(t, f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour)))
	assert.True(t, f.book.Account().Balance.Eq(firstBalance))
	assert.Equal(t, firstFills, len(f.orch.Audit().Fills()))
	require.Len(t, strat.fills, 2)
	assert.True(t, strat.fills[0].Price.Eq(fixed.FromInt(101)))
}

func TestOrchestrator_StopHaltsAtStepBoundary(t *testing.T) {
	strat := &scriptedStrategy{}
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), strat)
	strat.onEvent = func(i int) {
		if i == 1 {
			f.orch.Stop()
		}
	}

	err := f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StateStopped, f.orch.State())
	assert.Equal(t, 2, strat.events, "the step in flight completes, nothing after it runs")
}

func TestOrchestrator_ContextCancellation(t *testing.T) {
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), &scriptedStrategy{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.orch.Run(ctx, baseTime, baseTime.Add(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateStopped, f.orch.State())
}

func TestOrchestrator_GateRejectionIsTerminal(t *testing.T) {
	strat := &scriptedStrategy{script: map[int][]common.Order{
		0: {marketOrder(common.OrderSideBuy, "10")},
	}}
	f := newFixture(t, risk.Configuration{MaxPositionQuantity: fixed.One}, defaultConfig(), flatTicks(t, 3), strat)

	require.NoError(t, f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour)))

	assert.Empty(t, strat.fills)
	assert.Empty(t, f.orch.Audit().Trades())

	orders := f.orch.Audit().Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, common.OrderStatusRejected, orders[0].Status)
	assert.NotZero(t, orders[0].ID, "rejected orders still carry a real id")
}

func TestOrchestrator_StepIntervalBatchesEvents(t *testing.T) {
	strat := &scriptedStrategy{script: map[int][]common.Order{
		0: {marketOrder(common.OrderSideBuy, "10")},
		2: {marketOrder(common.OrderSideSell, "10")},
	}}
	cfg := defaultConfig()
	cfg.StepInterval = 5 * time.Second
	f := newFixture(t, risk.Configuration{}, cfg, flatTicks(t, 5), strat)

	require.NoError(t, f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour)))

	// All five events land in one batch, but per-event causality still holds.
	assert.Equal(t, baseTime.Add(5*time.Second), f.clock.Now())
	assert.Equal(t, 5, strat.events)
	assert.True(t, f.book.Account().Balance.Eq(fixed.FromInt(10020)))
}

func TestOrchestrator_Bounds(t *testing.T) {
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 5), &scriptedStrategy{})

	first, last, ok := f.orch.Bounds()
	require.True(t, ok)
	assert.Equal(t, baseTime, first)
	assert.Equal(t, baseTime.Add(4*time.Second), last)
}

func TestOrchestrator_DisposeForbidsRunning(t *testing.T) {
	f := newFixture(t, risk.Configuration{}, defaultConfig(), flatTicks(t, 3), &scriptedStrategy{})

	require.NoError(t, f.orch.Dispose())

	err := f.orch.Run(context.Background(), baseTime, baseTime.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidState)

	err = f.orch.Reset()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestOrchestrator_StateStrings(t *testing.T) {
	assert.Equal(t, "built", StateBuilt.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "completed", StateCompleted.String())
}
