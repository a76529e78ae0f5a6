package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

func TestZScore_ReportsReadyAfterFullWindow(t *testing.T) {
	z := NewZScore(3)

	z.Update(fixed.FromInt(1))
	z.Update(fixed.FromInt(2))
	assert.False(t, z.Ready())

	_, err := z.Value()
	assert.ErrorIs(t, err, ErrNotReady)

	z.Update(fixed.FromInt(3))
	assert.True(t, z.Ready())
}

func TestZScore_Value(t *testing.T) {
	// Window 2, 4, 4, 4, 5, 5, 7, 9: mean 5, stddev 2, latest 9.
	z := NewZScore(8)
	for _, v := range []int{2, 4, 4, 4, 5, 5, 7, 9} {
		z.Update(fixed.FromInt(v))
	}

	score, err := z.Value()
	require.NoError(t, err)
	assert.True(t, score.Eq(fixed.FromInt(2)))
}

func TestZScore_FlatWindow(t *testing.T) {
	z := NewZScore(4)
	for i := 0; i < 4; i++ {
		z.Update(fixed.FromInt(7))
	}

	_, err := z.Value()
	assert.ErrorIs(t, err, ErrFlatWindow)
}

func TestZScore_Rolls(t *testing.T) {
	z := NewZScore(3)
	for _, v := range []int{100, 1, 2, 3} {
		z.Update(fixed.FromInt(v))
	}

	// 100 is out of the window; mean 2 and the latest value is 3.
	score, err := z.Value()
	require.NoError(t, err)
	assert.True(t, score.IsPos())
	assert.True(t, score.Lt(fixed.FromInt(2)))
}

func bar(high, low, close int) common.Bar {
	return common.Bar{
		Symbol:    "EURUSD",
		High:      fixed.FromInt(high),
		Low:       fixed.FromInt(low),
		Close:     fixed.FromInt(close),
		TimeStamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAtr_SeedsFromFirstTrueRange(t *testing.T) {
	a := NewAtr(1)

	a.OnBar(bar(10, 8, 9))
	assert.False(t, a.Ready(), "the first bar only establishes the prior close")

	a.OnBar(bar(12, 9, 11))
	require.True(t, a.Ready())

	// True range is max(12-9, 12-9, 9-9) = 3.
	value, err := a.Value()
	require.NoError(t, err)
	assert.True(t, value.Eq(fixed.FromInt(3)))
}

func TestAtr_GapBeyondRange(t *testing.T) {
	a := NewAtr(1)

	a.OnBar(bar(10, 8, 10))
	a.OnBar(bar(16, 15, 15))

	// The gap from the prior close dominates: max(1, 6, 5) = 6.
	value, err := a.Value()
	require.NoError(t, err)
	assert.True(t, value.Eq(fixed.FromInt(6)))
}

func TestAtr_WilderSmoothing(t *testing.T) {
	a := NewAtr(2)

	a.OnBar(bar(10, 8, 9))
	a.OnBar(bar(12, 9, 11)) // seeds at 3
	a.OnBar(bar(12, 7, 10)) // tr 5, smoothed (3*1 + 5) / 2 = 4

	require.True(t, a.Ready())
	value, err := a.Value()
	require.NoError(t, err)
	assert.True(t, value.Eq(fixed.FromInt(4)))
}

func TestAtr_NotReadyBeforeWindow(t *testing.T) {
	a := NewAtr(5)
	a.OnBar(bar(10, 8, 9))
	a.OnBar(bar(12, 9, 11))

	_, err := a.Value()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestDonchian_NotReadyBeforeWindow(t *testing.T) {
	d := NewDonchian(3)
	d.OnBar(bar(10, 8, 9))
	d.OnBar(bar(12, 9, 11))

	assert.False(t, d.Ready())
	_, err := d.Upper()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = d.Lower()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = d.Middle()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestDonchian_Bands(t *testing.T) {
	d := NewDonchian(3)
	d.OnBar(bar(10, 8, 9))
	d.OnBar(bar(14, 9, 11))
	d.OnBar(bar(12, 6, 10))
	require.True(t, d.Ready())

	upper, err := d.Upper()
	require.NoError(t, err)
	assert.True(t, upper.Eq(fixed.FromInt(14)))

	lower, err := d.Lower()
	require.NoError(t, err)
	assert.True(t, lower.Eq(fixed.FromInt(6)))

	middle, err := d.Middle()
	require.NoError(t, err)
	assert.True(t, middle.Eq(fixed.FromInt(10)))
}

func TestDonchian_Rolls(t *testing.T) {
	d := NewDonchian(2)
	d.OnBar(bar(20, 1, 10))
	d.OnBar(bar(12, 9, 11))
	d.OnBar(bar(13, 8, 10))

	// The 20/1 bar is out of the window.
	upper, err := d.Upper()
	require.NoError(t, err)
	assert.True(t, upper.Eq(fixed.FromInt(13)))

	lower, err := d.Lower()
	require.NoError(t, err)
	assert.True(t, lower.Eq(fixed.FromInt(8)))
}
