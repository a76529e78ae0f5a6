package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/common"
)

// Performance accumulates time spent inside the wrapped handlers, split per
// event type. Useful for finding the slow observer in a long replay.
type Performance struct {
	logger *zap.Logger

	totalTickHandlerDur    time.Duration
	totalBarHandlerDur     time.Duration
	totalBalanceHandlerDur time.Duration
	totalEquityHandlerDur  time.Duration
	totalPosOpenHandlerDur time.Duration
	totalPosUpdtHandlerDur time.Duration
	totalPosClosHandlerDur time.Duration
	totalOrderHandlerDur   time.Duration
	totalFillHandlerDur    time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithTick(handler bus.TickEventHandler) bus.TickEventHandler {
	return func(ctx context.Context, tick common.Tick) {
		startTime := time.Now()
		handler(ctx, tick)
		p.totalTickHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		startTime := time.Now()
		handler(ctx, bar)
		p.totalBarHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		startTime := time.Now()
		handler(ctx, balance)
		p.totalBalanceHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		startTime := time.Now()
		handler(ctx, equity)
		p.totalEquityHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		startTime := time.Now()
		handler(ctx, position)
		p.totalPosOpenHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		startTime := time.Now()
		handler(ctx, position)
		p.totalPosUpdtHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithPositionClosed(handler bus.PositionClosedEventHandler) bus.PositionClosedEventHandler {
	return func(ctx context.Context, position common.Position) {
		startTime := time.Now()
		handler(ctx, position)
		p.totalPosClosHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithOrderAccepted(handler bus.OrderAcceptedEventHandler) bus.OrderAcceptedEventHandler {
	return func(ctx context.Context, accepted common.OrderAccepted) {
		startTime := time.Now()
		handler(ctx, accepted)
		p.totalOrderHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithOrderFilled(handler bus.OrderFilledEventHandler) bus.OrderFilledEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		startTime := time.Now()
		handler(ctx, fill)
		p.totalFillHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) PrintStatistics() {
	p.logger.Info("handler durations",
		zap.Duration("tick", p.totalTickHandlerDur),
		zap.Duration("bar", p.totalBarHandlerDur),
		zap.Duration("balance", p.totalBalanceHandlerDur),
		zap.Duration("equity", p.totalEquityHandlerDur),
		zap.Duration("position_opened", p.totalPosOpenHandlerDur),
		zap.Duration("position_updated", p.totalPosUpdtHandlerDur),
		zap.Duration("position_closed", p.totalPosClosHandlerDur),
		zap.Duration("order_accepted", p.totalOrderHandlerDur),
		zap.Duration("order_filled", p.totalFillHandlerDur))
}
