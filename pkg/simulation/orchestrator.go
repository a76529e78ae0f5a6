// Package simulation drives a full replay run: it advances the virtual
// clock along the merged feed, delivers each market event to the matching
// engine before any strategy sees it, risk-checks and submits the orders the
// strategies produce, books the resulting fills and keeps the audit trail.
// Everything on that path is synchronous; only observer events travel
// through the bus.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/clock"
	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/exchange/sandbox"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/portfolio"
	"github.com/quantfabric/replay/pkg/risk"
	"github.com/quantfabric/replay/pkg/strategy"
	"github.com/quantfabric/replay/pkg/utility"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const componentName = "orchestrator"

var (
	ErrInvalidRange = errors.New("simulation: run range is empty or outside the feed bounds")
	ErrInvalidState = errors.New("simulation: operation not allowed in current state")
)

// Internal loop verdicts, translated to terminal states by Run.
var (
	errRunComplete   = errors.New("run complete")
	errStopRequested = errors.New("stop requested")
)

type State int

const (
	StateBuilt State = iota
	StateRunning
	StateStopped
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type Orchestrator struct {
	logger *slog.Logger
	router *bus.Router
	clock  *clock.Clock
	engine *sandbox.Engine
	gate   *risk.Gate
	book   *portfolio.Portfolio
	audit  *Audit
	cfg    Configuration

	merger     *feed.Merger
	series     []feed.Series
	strategies []strategy.Strategy

	state         State
	disposed      bool
	stopRequested atomic.Bool
	stopTime      time.Time

	stratCtx    *strategy.Context
	marks       map[string]fixed.Point
	lastBalance fixed.Point
	lastEquity  fixed.Point
}

// New merges the series into a single ordered feed and wires the audit trail
// into the engine's terminal-order hook. Construction fails if any series is
// out of order; nothing is mutated in that case.
func New(
	logger *slog.Logger,
	router *bus.Router,
	simClock *clock.Clock,
	engine *sandbox.Engine,
	gate *risk.Gate,
	book *portfolio.Portfolio,
	cfg Configuration,
	series []feed.Series,
	strategies ...strategy.Strategy,
) (*Orchestrator, error) {

	merger, err := feed.NewMerger(cfg.Resolution, series...)
	if err != nil {
		return nil, err
	}

	audit := NewAudit(cfg.SnapshotInterval)
	engine.SetTerminalFunc(audit.RecordOrder)

	o := &Orchestrator{
		logger:     logger,
		router:     router,
		clock:      simClock,
		engine:     engine,
		gate:       gate,
		book:       book,
		audit:      audit,
		cfg:        cfg,
		merger:     merger,
		series:     series,
		strategies: strategies,
		state:      StateBuilt,
	}
	o.stratCtx = &strategy.Context{
		Clock:    simClock,
		Snapshot: book.Snapshot,
		Logger:   logger,
	}
	return o, nil
}

func (o *Orchestrator) State() State  { return o.state }
func (o *Orchestrator) Audit() *Audit { return o.audit }

// Bounds reports the merged feed's first and last event times.
func (o *Orchestrator) Bounds() (first, last time.Time, ok bool) {
	if o.merger == nil {
		return time.Time{}, time.Time{}, false
	}
	return o.merger.Bounds()
}

// Run replays events in [start, stop] and blocks until the feed is
// exhausted, the stop time is passed, Stop is called or the context is
// cancelled. An invalid range fails before any component is touched. A run
// consumes the orchestrator; call Reset to rewind for another pass.
func (o *Orchestrator) Run(ctx context.Context, start, stop time.Time) error {
	if o.disposed || o.state != StateBuilt {
		return fmt.Errorf("%w: %s", ErrInvalidState, o.state)
	}

	first, last, ok := o.merger.Bounds()
	if !ok || !start.Before(stop) || start.After(last) || stop.Before(first) {
		return ErrInvalidRange
	}

	o.state = StateRunning
	o.stopRequested.Store(false)
	o.stopTime = stop
	o.marks = make(map[string]fixed.Point)
	o.clock.Reset(start)
	o.lastBalance = o.book.Account().Balance
	o.lastEquity = o.lastBalance

	// Events before the window are consumed without being delivered.
	o.merger.DrainUpTo(start.Add(-time.Nanosecond))

	o.logger.Info("run started",
		"component", componentName,
		"start", start, "stop", stop,
		"resolution", o.cfg.Resolution,
		"strategies", len(o.strategies))

	for _, s := range o.strategies {
		s.OnStart(o.stratCtx)
	}

	err := o.router.ExecLoop(ctx, o.step)

	for _, s := range o.strategies {
		s.OnStop(o.stratCtx)
	}
	o.audit.ForceAccountSnapshot(o.book.Account().Balance, o.book.Equity(o.marks), o.clock.Now())

	switch {
	case errors.Is(err, errRunComplete):
		o.state = StateCompleted
		err = nil
	case errors.Is(err, errStopRequested):
		o.state = StateStopped
		err = nil
	default:
		o.state = StateStopped
	}

	o.logger.Info("run finished",
		"component", componentName,
		"state", o.state.String(),
		"trades", len(o.audit.Trades()),
		"fills", len(o.audit.Fills()))

	return err
}

// Stop requests a cooperative halt. The run finishes its current step, so no
// event batch is ever half-processed.
func (o *Orchestrator) Stop() {
	o.stopRequested.Store(true)
}

// Reset rewinds every component to its initial state for a fresh,
// bit-identical run: the feed cursor, the clock, the matching engine RNG and
// id sequences, the portfolio and the audit trail.
func (o *Orchestrator) Reset() error {
	if o.disposed || o.state == StateRunning {
		return fmt.Errorf("%w: %s", ErrInvalidState, o.state)
	}

	merger, err := feed.NewMerger(o.cfg.Resolution, o.series...)
	if err != nil {
		return err
	}
	o.merger = merger

	o.clock.Reset(time.Time{})
	o.engine.Reset()
	o.book.Reset()
	o.audit.Reset()
	o.marks = nil
	o.state = StateBuilt
	utility.ResetExecutionID()
	return nil
}

// Dispose releases the feed data. The orchestrator cannot run afterwards.
func (o *Orchestrator) Dispose() error {
	if o.state == StateRunning {
		return fmt.Errorf("%w: %s", ErrInvalidState, o.state)
	}
	o.merger = nil
	o.series = nil
	o.disposed = true
	return nil
}

func (o *Orchestrator) PerformanceReport() Report {
	return o.audit.GenerateReport()
}

// PerformanceStats is the report flattened to named metrics.
func (o *Orchestrator) PerformanceStats() map[string]fixed.Point {
	return o.audit.GenerateReport().Stats()
}

// step advances the clock to the next event time (or the next fixed
// boundary), delivers the drained batch and records the account state. It
// returns a sentinel once the feed or the run window is exhausted.
func (o *Orchestrator) step() error {
	if o.stopRequested.Load() {
		return errStopRequested
	}

	next, ok := o.merger.PeekNextTime()
	if !ok || next.After(o.stopTime) {
		return errRunComplete
	}

	target := next
	if o.cfg.StepInterval > 0 {
		target = next.Truncate(o.cfg.StepInterval).Add(o.cfg.StepInterval)
		if target.After(o.stopTime) {
			target = o.stopTime
		}
	}

	if err := o.clock.AdvanceTo(target); err != nil {
		return err
	}

	for _, ev := range o.merger.DrainUpTo(target) {
		if err := o.processEvent(ev); err != nil {
			return err
		}
	}

	o.observeAccount()
	return nil
}

// processEvent runs the causality chain for one market event: mark update,
// engine matching, fill booking, then strategy callbacks. Strategies always
// observe a book that already reflects this event's executions.
func (o *Orchestrator) processEvent(ev feed.Event) error {
	symbol := ev.Symbol()
	o.marks[symbol] = markOf(ev)
	o.postMarketEvent(ev)

	for _, fill := range o.engine.OnMarketEvent(ev) {
		if err := o.applyFill(fill); err != nil {
			return err
		}
	}

	for _, s := range o.strategies {
		for _, order := range s.OnMarketEvent(o.stratCtx, ev) {
			o.submit(order)
		}
	}
	return nil
}

func (o *Orchestrator) applyFill(fill common.Fill) error {
	result, err := o.book.Apply(fill)
	if err != nil {
		// A duplicate fill means the engine and portfolio disagree about
		// history. The run cannot be trusted past this point.
		return fmt.Errorf("halting run: %w", err)
	}
	o.audit.RecordFill(fill, result)

	eventId := bus.PositionUpdatedEvent
	switch {
	case result.Opened:
		eventId = bus.PositionOpenedEvent
	case result.Closed:
		eventId = bus.PositionClosedEvent
	}
	o.post(eventId, result.Position)

	for _, s := range o.strategies {
		s.OnFill(o.stratCtx, fill)
	}
	return nil
}

// submit risk-checks one strategy order and hands it to the engine. A gate
// rejection is terminal for this order id; the strategy must produce a new
// order to retry.
func (o *Orchestrator) submit(order common.Order) {
	order.ID = o.engine.NextOrderID()

	refPrice := o.marks[order.Symbol]
	if err := o.gate.Check(order, refPrice, o.book.Snapshot(), o.engine.RestingOrders(order.Symbol)); err != nil {
		o.rejectPreTrade(order, err)
		return
	}

	if _, err := o.engine.Submit(order); err != nil {
		o.logger.Debug("order rejected by engine",
			"component", componentName, "order_id", order.ID, "error", err)
	}
}

func (o *Orchestrator) rejectPreTrade(order common.Order, cause error) {
	_ = order.Transition(common.OrderStatusSubmitted)
	_ = order.Transition(common.OrderStatusRejected)
	order.Source = componentName
	order.ExecutionID = utility.GetExecutionID()
	order.TimeStamp = o.clock.Now()

	o.audit.RecordOrder(order)
	o.post(bus.OrderRejectedEvent, common.OrderRejected{
		Order:       order,
		Reason:      cause.Error(),
		Source:      componentName,
		ExecutionID: utility.GetExecutionID(),
		TimeStamp:   o.clock.Now(),
	})

	o.logger.Debug("order rejected by risk gate",
		"component", componentName, "order_id", order.ID, "error", cause)
}

func (o *Orchestrator) observeAccount() {
	now := o.clock.Now()
	balance := o.book.Account().Balance
	equity := o.book.Equity(o.marks)

	if !balance.Eq(o.lastBalance) {
		o.post(bus.BalanceEvent, common.Balance{
			Value:       balance,
			Source:      componentName,
			Currency:    o.cfg.Currency,
			ExecutionID: utility.GetExecutionID(),
			TimeStamp:   now,
		})
		o.lastBalance = balance
	}
	if !equity.Eq(o.lastEquity) {
		o.post(bus.EquityEvent, common.Equity{
			Value:       equity,
			Source:      componentName,
			Currency:    o.cfg.Currency,
			ExecutionID: utility.GetExecutionID(),
			TimeStamp:   now,
		})
		o.lastEquity = equity
	}

	o.audit.AddAccountSnapshot(balance, equity, now)
}

func (o *Orchestrator) postMarketEvent(ev feed.Event) {
	if ev.Kind == feed.KindTick {
		o.post(bus.TickEvent, ev.Tick)
		return
	}
	o.post(bus.BarEvent, ev.Bar)
}

func (o *Orchestrator) post(id bus.EventId, data interface{}) {
	if err := o.router.Post(id, data); err != nil {
		o.logger.Warn("unable to post event",
			"component", componentName, "event", id, "error", err)
	}
}

func markOf(ev feed.Event) fixed.Point {
	if ev.Kind == feed.KindTick {
		return ev.Tick.Mark()
	}
	return ev.Bar.Close
}
