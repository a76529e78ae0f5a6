// Package clock provides the simulated clock every component reads time from.
// The clock never consults wall-clock time; it only moves when the simulation
// loop advances it, which is what makes replays reproducible.
package clock

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidAdvance = errors.New("clock: advance target precedes current time")

// Listener is notified after every successful advance. The strategy layer
// hangs timers and time alerts off this.
type Listener func(now time.Time)

// Clock has a single writer, the orchestrator, and any number of readers.
// It needs no locking under the engine's single-threaded step model.
type Clock struct {
	current   time.Time
	listeners []Listener
}

func New(epoch time.Time) *Clock {
	return &Clock{current: epoch}
}

func (c *Clock) Now() time.Time {
	return c.current
}

// AdvanceTo moves the clock forward to t and notifies listeners. Advancing to
// the current instant is a no-op; moving backward fails.
func (c *Clock) AdvanceTo(t time.Time) error {
	if t.Before(c.current) {
		return fmt.Errorf("%w: %s < %s", ErrInvalidAdvance, t, c.current)
	}
	if t.Equal(c.current) {
		return nil
	}
	c.current = t
	for _, listener := range c.listeners {
		listener(t)
	}
	return nil
}

func (c *Clock) OnAdvance(listener Listener) {
	c.listeners = append(c.listeners, listener)
}

// Reset rewinds the clock to a new epoch. Listeners are kept; only the
// orchestrator calls this, as part of a full engine reset.
func (c *Clock) Reset(epoch time.Time) {
	c.current = epoch
}
