// Package feed merges per-instrument market data series into one strictly
// time-ordered event stream for the simulation loop.
package feed

import (
	"time"

	"github.com/quantfabric/replay/pkg/common"
)

type Kind int

// Ticks sort before bars at equal timestamps, part of the deterministic
// tie-break rule.
const (
	KindTick Kind = iota
	KindBar
)

func (k Kind) String() string {
	if k == KindTick {
		return "tick"
	}
	return "bar"
}

// Event is the tagged union delivered by the merger. Exactly one of Tick or
// Bar is meaningful, selected by Kind.
type Event struct {
	Kind Kind
	Tick common.Tick
	Bar  common.Bar
}

func TickEvent(tick common.Tick) Event {
	return Event{Kind: KindTick, Tick: tick}
}

func BarEvent(bar common.Bar) Event {
	return Event{Kind: KindBar, Bar: bar}
}

func (e Event) Time() time.Time {
	if e.Kind == KindTick {
		return e.Tick.TimeStamp
	}
	return e.Bar.TimeStamp
}

func (e Event) Symbol() string {
	if e.Kind == KindTick {
		return e.Tick.Symbol
	}
	return e.Bar.Symbol
}
