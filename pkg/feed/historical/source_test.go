package historical

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

var fileEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleTicks(n int) []common.Tick {
	ticks := make([]common.Tick, 0, n)
	for i := 0; i < n; i++ {
		ticks = append(ticks, common.Tick{
			Symbol:    "EURUSD",
			Bid:       fixed.FromFloat64(1.10 + float64(i)*0.0001),
			Ask:       fixed.FromFloat64(1.1001 + float64(i)*0.0001),
			BidVolume: fixed.FromInt(100),
			AskVolume: fixed.FromInt(150),
			TimeStamp: fileEpoch.Add(time.Duration(i) * time.Second),
		})
	}
	return ticks
}

func writeTickFile(t *testing.T, ticks []common.Tick) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eurusd.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteTicks(f, ticks))
	require.NoError(t, f.Close())
	return path
}

func TestTickFile_RoundTrip(t *testing.T) {
	ticks := sampleTicks(10)
	path := writeTickFile(t, ticks)

	file, err := OpenTickFile(path, "EURUSD")
	require.NoError(t, err)
	defer file.Close()

	assert.EqualValues(t, 10, file.EntryCount())

	series, err := file.LoadSeries(fileEpoch, fileEpoch.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, series.Ticks, 10)

	for i, tick := range series.Ticks {
		assert.Equal(t, "EURUSD", tick.Symbol)
		assert.True(t, ticks[i].TimeStamp.Equal(tick.TimeStamp))
		assert.True(t, tick.Bid.Eq(ticks[i].Bid), "tick %d bid", i)
		assert.True(t, tick.Ask.Eq(ticks[i].Ask), "tick %d ask", i)
	}
}

func TestTickFile_LoadSeriesWindow(t *testing.T) {
	path := writeTickFile(t, sampleTicks(10))

	file, err := OpenTickFile(path, "EURUSD")
	require.NoError(t, err)
	defer file.Close()

	// [3s, 6s] is inclusive on both ends.
	series, err := file.LoadSeries(fileEpoch.Add(3*time.Second), fileEpoch.Add(6*time.Second))
	require.NoError(t, err)
	require.Len(t, series.Ticks, 4)
	assert.True(t, series.Ticks[0].TimeStamp.Equal(fileEpoch.Add(3*time.Second)))
	assert.True(t, series.Ticks[3].TimeStamp.Equal(fileEpoch.Add(6*time.Second)))
}

func TestTickFile_LoadSeriesOutsideRange(t *testing.T) {
	path := writeTickFile(t, sampleTicks(5))

	file, err := OpenTickFile(path, "EURUSD")
	require.NoError(t, err)
	defer file.Close()

	series, err := file.LoadSeries(fileEpoch.Add(time.Hour), fileEpoch.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, series.Ticks)
}

func TestWriteTicks_RejectsOutOfOrder(t *testing.T) {
	ticks := sampleTicks(2)
	ticks[0], ticks[1] = ticks[1], ticks[0]

	f, err := os.Create(filepath.Join(t.TempDir(), "bad.bin"))
	require.NoError(t, err)
	defer f.Close()

	assert.Error(t, WriteTicks(f, ticks))
}

func TestOpenTickFile_RejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, int(recordSize)+1), 0o600))

	_, err := OpenTickFile(path, "EURUSD")
	assert.Error(t, err)
}
