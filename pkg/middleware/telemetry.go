package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/common"
)

// Telemetry counts dispatched events per type.
type Telemetry struct {
	logger *zap.Logger

	tickEventCounter            int64
	barEventCounter             int64
	balanceEventCounter         int64
	equityEventCounter          int64
	positionOpenedEventCounter  int64
	positionUpdatedEventCounter int64
	positionClosedEventCounter  int64
	orderAcceptedEventCounter   int64
	orderRejectedEventCounter   int64
	orderCancelledEventCounter  int64
	orderFilledEventCounter     int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithTick(handler bus.TickEventHandler) bus.TickEventHandler {
	return func(ctx context.Context, tick common.Tick) {
		t.tickEventCounter++
		handler(ctx, tick)
	}
}

func (t *Telemetry) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		t.barEventCounter++
		handler(ctx, bar)
	}
}

func (t *Telemetry) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		t.balanceEventCounter++
		handler(ctx, balance)
	}
}

func (t *Telemetry) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		t.equityEventCounter++
		handler(ctx, equity)
	}
}

func (t *Telemetry) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionOpenedEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionUpdatedEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionClosed(handler bus.PositionClosedEventHandler) bus.PositionClosedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionClosedEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithOrderAccepted(handler bus.OrderAcceptedEventHandler) bus.OrderAcceptedEventHandler {
	return func(ctx context.Context, accepted common.OrderAccepted) {
		t.orderAcceptedEventCounter++
		handler(ctx, accepted)
	}
}

func (t *Telemetry) WithOrderRejected(handler bus.OrderRejectedEventHandler) bus.OrderRejectedEventHandler {
	return func(ctx context.Context, rejected common.OrderRejected) {
		t.orderRejectedEventCounter++
		handler(ctx, rejected)
	}
}

func (t *Telemetry) WithOrderCancelled(handler bus.OrderCancelledEventHandler) bus.OrderCancelledEventHandler {
	return func(ctx context.Context, cancelled common.OrderCancelled) {
		t.orderCancelledEventCounter++
		handler(ctx, cancelled)
	}
}

func (t *Telemetry) WithOrderFilled(handler bus.OrderFilledEventHandler) bus.OrderFilledEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		t.orderFilledEventCounter++
		handler(ctx, fill)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("tick_events", t.tickEventCounter),
		zap.Int64("bar_events", t.barEventCounter),
		zap.Int64("balance_events", t.balanceEventCounter),
		zap.Int64("equity_events", t.equityEventCounter),
		zap.Int64("position_opened_events", t.positionOpenedEventCounter),
		zap.Int64("position_updated_events", t.positionUpdatedEventCounter),
		zap.Int64("position_closed_events", t.positionClosedEventCounter),
		zap.Int64("order_accepted_events", t.orderAcceptedEventCounter),
		zap.Int64("order_rejected_events", t.orderRejectedEventCounter),
		zap.Int64("order_cancelled_events", t.orderCancelledEventCounter),
		zap.Int64("order_filled_events", t.orderFilledEventCounter))
}
