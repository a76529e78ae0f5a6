package bus

import (
	"context"

	"github.com/quantfabric/replay/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type TickEventHandler EventHandler[common.Tick]
type BarEventHandler EventHandler[common.Bar]
type EquityEventHandler EventHandler[common.Equity]
type BalanceEventHandler EventHandler[common.Balance]
type PositionOpenedEventHandler EventHandler[common.Position]
type PositionUpdatedEventHandler EventHandler[common.Position]
type PositionClosedEventHandler EventHandler[common.Position]
type OrderAcceptedEventHandler EventHandler[common.OrderAccepted]
type OrderRejectedEventHandler EventHandler[common.OrderRejected]
type OrderCancelledEventHandler EventHandler[common.OrderCancelled]
type OrderFilledEventHandler EventHandler[common.Fill]

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
