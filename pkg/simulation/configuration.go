package simulation

import (
	"time"

	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type Configuration struct {
	Currency     string
	StartCapital fixed.Point
	Resolution   feed.Resolution

	// StepInterval switches the loop to fixed-width steps, advancing the
	// clock in whole multiples of the interval and delivering every event
	// inside the step as one batch. Zero advances event by event.
	StepInterval time.Duration

	// SnapshotInterval throttles account snapshots in the audit trail.
	// Zero records a snapshot after every step.
	SnapshotInterval time.Duration
}
