// Package strategy defines the callback contract the simulation loop drives.
// Strategy logic itself lives with the caller; the engine only guarantees
// when and in what order these hooks fire.
package strategy

import (
	"log/slog"

	"github.com/quantfabric/replay/pkg/clock"
	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/portfolio"
)

// Context carries the per-run handles a strategy may read: the simulated
// clock, a portfolio snapshot accessor, and a logger. It is injected by the
// orchestrator at setup; strategies never construct their own clock.
type Context struct {
	Clock    *clock.Clock
	Snapshot func() portfolio.Snapshot
	Logger   *slog.Logger
}

// Strategy receives market events after the matching engine has reconciled
// resting orders against them, so a strategy can never act on a price the
// engine has not seen. Orders returned from OnMarketEvent are risk-checked
// and submitted synchronously within the same step.
type Strategy interface {
	OnStart(ctx *Context)
	OnMarketEvent(ctx *Context, event feed.Event) []common.Order
	OnFill(ctx *Context, fill common.Fill)
	OnStop(ctx *Context)
}

// Nop implements Strategy with no behavior, for embedding.
type Nop struct{}

func (Nop) OnStart(*Context)                                {}
func (Nop) OnMarketEvent(*Context, feed.Event) []common.Order { return nil }
func (Nop) OnFill(*Context, common.Fill)                    {}
func (Nop) OnStop(*Context)                                 {}
