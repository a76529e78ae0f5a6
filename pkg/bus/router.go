package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/quantfabric/replay/pkg/common"
)

type event struct {
	id   EventId
	data interface{}
}

// Router queues observer events and dispatches them to the attached handlers
// on a single goroutine, preserving post order.
type Router struct {
	events chan event

	OnTick            TickEventHandler
	OnBar             BarEventHandler
	OnEquity          EquityEventHandler
	OnBalance         BalanceEventHandler
	OnPositionOpened  PositionOpenedEventHandler
	OnPositionUpdated PositionUpdatedEventHandler
	OnPositionClosed  PositionClosedEventHandler
	OnOrderAccepted   OrderAcceptedEventHandler
	OnOrderRejected   OrderRejectedEventHandler
	OnOrderCancelled  OrderCancelledEventHandler
	OnOrderFilled     OrderFilledEventHandler

	runTime       time.Duration
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		events: make(chan event, eventCapacity),
	}
}

func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return errors.New("event capacity reached")
	}
}

// Exec dispatches queued events until the context is cancelled. The returned
// channel yields the terminal error once.
func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	go func() {
		r.resetStatistics()

		start := time.Now()
		defer func() {
			r.runTime += time.Since(start)
		}()

		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchOne(ev)
			}
		}
	}()

	return done
}

// ExecLoop alternates between draining queued events and invoking doOnceCb.
// Events posted during a callback are fully dispatched before the callback
// runs again, which keeps replay dispatch deterministic on one goroutine.
// The queue is drained once more before the callback error is returned.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) error {
	r.resetStatistics()

	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			r.dispatchOne(ev)
		default:
			if err := doOnceCb(); err != nil {
				r.drain()
				return err
			}
		}
	}
}

func (r *Router) drain() {
	for {
		select {
		case ev := <-r.events:
			r.dispatchOne(ev)
		default:
			return
		}
	}
}

func (r *Router) dispatchOne(ev event) {
	r.dispatchCount.Add(1)
	if err := r.dispatch(ev); err != nil {
		r.dispatchFails.Add(1)
		slog.Warn("dispatch failed", "error", err, "event", ev)
	}
}

func (r *Router) resetStatistics() {
	r.runTime = 0
	r.postCount.Store(0)
	r.postFails.Store(0)
	r.dispatchCount.Store(0)
	r.dispatchFails.Store(0)
}

// Statistics is a snapshot of the router's counters taken after
// ExecLoop returns. Derived figures come from methods so a snapshot
// of a router that never ran stays well defined.
type Statistics struct {
	RunTime       time.Duration
	PostCount     uint64
	PostFails     uint64
	DispatchCount uint64
	DispatchFails uint64
}

// Throughput reports dispatched events per second of run time.
func (s Statistics) Throughput() float64 {
	if s.RunTime <= 0 {
		return 0
	}
	return float64(s.DispatchCount) / s.RunTime.Seconds()
}

func (s Statistics) Print() {
	slog.Info("event router",
		"run_time", s.RunTime.Round(time.Millisecond).String(),
		"posted", s.PostCount,
		"post_fails", s.PostFails,
		"dispatched", s.DispatchCount,
		"dispatch_fails", s.DispatchFails,
		"throughput", fmt.Sprintf("%.0f/s", s.Throughput()))
}

func (r *Router) Statistics() Statistics {
	return Statistics{
		RunTime:       r.runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
	}
}

func (r *Router) dispatch(ev event) error {
	ctx := context.Background()

	switch ev.id {
	case TickEvent:
		tick, ok := ev.data.(common.Tick)
		if !ok {
			return errors.New("invalid type assertion for tick event")
		}
		if r.OnTick != nil {
			r.OnTick(ctx, tick)
		}
	case BarEvent:
		bar, ok := ev.data.(common.Bar)
		if !ok {
			return errors.New("invalid type assertion for bar event")
		}
		if r.OnBar != nil {
			r.OnBar(ctx, bar)
		}
	case EquityEvent:
		eq, ok := ev.data.(common.Equity)
		if !ok {
			return errors.New("invalid type assertion for equity event")
		}
		if r.OnEquity != nil {
			r.OnEquity(ctx, eq)
		}
	case BalanceEvent:
		bal, ok := ev.data.(common.Balance)
		if !ok {
			return errors.New("invalid type assertion for balance event")
		}
		if r.OnBalance != nil {
			r.OnBalance(ctx, bal)
		}
	case PositionOpenedEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position opened event")
		}
		if r.OnPositionOpened != nil {
			r.OnPositionOpened(ctx, pos)
		}
	case PositionUpdatedEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position updated event")
		}
		if r.OnPositionUpdated != nil {
			r.OnPositionUpdated(ctx, pos)
		}
	case PositionClosedEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position closed event")
		}
		if r.OnPositionClosed != nil {
			r.OnPositionClosed(ctx, pos)
		}
	case OrderAcceptedEvent:
		acc, ok := ev.data.(common.OrderAccepted)
		if !ok {
			return errors.New("invalid type assertion for order accepted event")
		}
		if r.OnOrderAccepted != nil {
			r.OnOrderAccepted(ctx, acc)
		}
	case OrderRejectedEvent:
		rej, ok := ev.data.(common.OrderRejected)
		if !ok {
			return errors.New("invalid type assertion for order rejected event")
		}
		if r.OnOrderRejected != nil {
			r.OnOrderRejected(ctx, rej)
		}
	case OrderCancelledEvent:
		can, ok := ev.data.(common.OrderCancelled)
		if !ok {
			return errors.New("invalid type assertion for order cancelled event")
		}
		if r.OnOrderCancelled != nil {
			r.OnOrderCancelled(ctx, can)
		}
	case OrderFilledEvent:
		fill, ok := ev.data.(common.Fill)
		if !ok {
			return errors.New("invalid type assertion for order filled event")
		}
		if r.OnOrderFilled != nil {
			r.OnOrderFilled(ctx, fill)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
