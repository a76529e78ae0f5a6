package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

func TestRouter_PostCapacity(t *testing.T) {
	r := NewRouter(1)

	require.NoError(t, r.Post(TickEvent, common.Tick{}))
	assert.Error(t, r.Post(TickEvent, common.Tick{}), "second post must overflow the queue")
}

func TestRouter_ExecLoopDispatchesInOrder(t *testing.T) {
	r := NewRouter(16)

	var seen []string
	r.OnTick = func(_ context.Context, tick common.Tick) {
		seen = append(seen, "tick "+tick.Symbol)
	}
	r.OnBar = func(_ context.Context, bar common.Bar) {
		seen = append(seen, "bar "+bar.Symbol)
	}

	steps := 0
	stop := errors.New("done")
	err := r.ExecLoop(context.Background(), func() error {
		switch steps {
		case 0:
			require.NoError(t, r.Post(TickEvent, common.Tick{Symbol: "A"}))
			require.NoError(t, r.Post(BarEvent, common.Bar{Symbol: "B"}))
		case 1:
			require.NoError(t, r.Post(TickEvent, common.Tick{Symbol: "C"}))
		default:
			return stop
		}
		steps++
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"tick A", "bar B", "tick C"}, seen)
}

func TestRouter_ExecLoopDrainsBeforeReturn(t *testing.T) {
	r := NewRouter(16)

	var equities int
	r.OnEquity = func(context.Context, common.Equity) { equities++ }

	stop := errors.New("done")
	err := r.ExecLoop(context.Background(), func() error {
		require.NoError(t, r.Post(EquityEvent, common.Equity{Value: fixed.One}))
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, equities, "events posted by the final callback must still dispatch")
}

func TestRouter_ExecLoopContextCancel(t *testing.T) {
	r := NewRouter(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.ExecLoop(ctx, func() error {
		time.Sleep(time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouter_DispatchWithoutHandler(t *testing.T) {
	r := NewRouter(4)

	stop := errors.New("done")
	err := r.ExecLoop(context.Background(), func() error {
		require.NoError(t, r.Post(TickEvent, common.Tick{}))
		return stop
	})
	assert.ErrorIs(t, err, stop)

	stats := r.Statistics()
	assert.Equal(t, uint64(1), stats.DispatchCount, "nil handlers still consume events")
	assert.Zero(t, stats.DispatchFails)
}

func TestRouter_DispatchTypeMismatch(t *testing.T) {
	r := NewRouter(4)
	r.OnTick = func(context.Context, common.Tick) {}

	stop := errors.New("done")
	err := r.ExecLoop(context.Background(), func() error {
		require.NoError(t, r.Post(TickEvent, common.Bar{}))
		return stop
	})
	assert.ErrorIs(t, err, stop)

	assert.Equal(t, uint64(1), r.Statistics().DispatchFails)
}

func TestRouter_Statistics(t *testing.T) {
	r := NewRouter(8)
	r.OnTick = func(context.Context, common.Tick) {}

	steps := 0
	stop := errors.New("done")
	_ = r.ExecLoop(context.Background(), func() error {
		if steps > 0 {
			return stop
		}
		steps++
		require.NoError(t, r.Post(TickEvent, common.Tick{}))
		require.NoError(t, r.Post(TickEvent, common.Tick{}))
		return nil
	})

	stats := r.Statistics()
	assert.Equal(t, uint64(2), stats.PostCount)
	assert.Equal(t, uint64(2), stats.DispatchCount)
	assert.Zero(t, stats.DispatchFails)
	assert.Greater(t, stats.Throughput(), 0.0)
}

func TestStatistics_ThroughputWithoutRunTime(t *testing.T) {
	var stats Statistics
	stats.DispatchCount = 42

	assert.Zero(t, stats.Throughput(), "snapshot of a router that never ran")
}
