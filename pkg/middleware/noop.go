package middleware

import (
	"context"

	"github.com/quantfabric/replay/pkg/common"
)

var (
	NoopTickHdl      = func(context.Context, common.Tick) {}
	NoopBarHdl       = func(context.Context, common.Bar) {}
	NoopEquityHdl    = func(context.Context, common.Equity) {}
	NoopBalanceHdl   = func(context.Context, common.Balance) {}
	NoopPosOpnHdl    = func(context.Context, common.Position) {}
	NoopPosUpdHdl    = func(context.Context, common.Position) {}
	NoopPosClsHdl    = func(context.Context, common.Position) {}
	NoopOrderAccHdl  = func(context.Context, common.OrderAccepted) {}
	NoopOrderRjctHdl = func(context.Context, common.OrderRejected) {}
	NoopOrderCnclHdl = func(context.Context, common.OrderCancelled) {}
	NoopOrderFillHdl = func(context.Context, common.Fill) {}
)
