package middleware

import (
	"context"
	"log/slog"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/common"
)

type MonitorFlags uint16

const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorTicks
	MonitorBars
	MonitorEquity
	MonitorBalance
	MonitorPositionsOpened
	MonitorPositionsUpdated
	MonitorPositionsClosed
	MonitorOrdersAccepted
	MonitorOrdersRejected
	MonitorOrdersCancelled
	MonitorOrdersFilled
)

// Monitor logs the events selected by its flags before passing them on.
type Monitor struct {
	flags MonitorFlags
}

func NewMonitor(flags MonitorFlags) *Monitor {
	return &Monitor{
		flags: flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0 || m.flags&MonitorAll != 0
}

func (m *Monitor) WithTick(handler bus.TickEventHandler) bus.TickEventHandler {
	return func(ctx context.Context, tick common.Tick) {
		if m.enabled(MonitorTicks) {
			slog.Info("event", "tick", tick)
		}
		handler(ctx, tick)
	}
}

func (m *Monitor) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		if m.enabled(MonitorBars) {
			slog.Info("event", "bar", bar)
		}
		handler(ctx, bar)
	}
}

func (m *Monitor) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		if m.enabled(MonitorEquity) {
			slog.Info("event", "equity", equity)
		}
		handler(ctx, equity)
	}
}

func (m *Monitor) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		if m.enabled(MonitorBalance) {
			slog.Info("event", "balance", balance)
		}
		handler(ctx, balance)
	}
}

func (m *Monitor) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionsOpened) {
			slog.Info("event", "position_opened", position)
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionsUpdated) {
			slog.Info("event", "position_updated", position)
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithPositionClosed(handler bus.PositionClosedEventHandler) bus.PositionClosedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionsClosed) {
			slog.Info("event", "position_closed", position)
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithOrderAccepted(handler bus.OrderAcceptedEventHandler) bus.OrderAcceptedEventHandler {
	return func(ctx context.Context, accepted common.OrderAccepted) {
		if m.enabled(MonitorOrdersAccepted) {
			slog.Info("event", "order_accepted", accepted)
		}
		handler(ctx, accepted)
	}
}

func (m *Monitor) WithOrderRejected(handler bus.OrderRejectedEventHandler) bus.OrderRejectedEventHandler {
	return func(ctx context.Context, rejected common.OrderRejected) {
		if m.enabled(MonitorOrdersRejected) {
			slog.Info("event", "order_rejected", rejected)
		}
		handler(ctx, rejected)
	}
}

func (m *Monitor) WithOrderCancelled(handler bus.OrderCancelledEventHandler) bus.OrderCancelledEventHandler {
	return func(ctx context.Context, cancelled common.OrderCancelled) {
		if m.enabled(MonitorOrdersCancelled) {
			slog.Info("event", "order_cancelled", cancelled)
		}
		handler(ctx, cancelled)
	}
}

func (m *Monitor) WithOrderFilled(handler bus.OrderFilledEventHandler) bus.OrderFilledEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		if m.enabled(MonitorOrdersFilled) {
			slog.Info("event", "order_filled", fill)
		}
		handler(ctx, fill)
	}
}
