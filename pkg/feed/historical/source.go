// Package historical loads pre-recorded tick data from fixed-record binary
// files through a memory map, the cheapest way to feed multi-year tick runs.
package historical

import (
	"fmt"
	"io"
	"time"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const sourceName = "feed.historical"

// record is the on-disk tick layout: little-endian, nanosecond timestamps,
// written by the capture tooling.
type record struct {
	TimeStamp int64
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

var recordSize = int64(unsafe.Sizeof(record{}))

// TickFile is one instrument's tick history in a single binary file.
type TickFile struct {
	path   string
	symbol string
	reader *mmap.ReaderAt
	count  int64
}

func OpenTickFile(path, symbol string) (*TickFile, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open tick file %q: %w", path, err)
	}
	size := int64(reader.Len())
	if size%recordSize != 0 {
		_ = reader.Close()
		return nil, fmt.Errorf("tick file %q size is not a multiple of the record size", path)
	}
	return &TickFile{
		path:   path,
		symbol: symbol,
		reader: reader,
		count:  size / recordSize,
	}, nil
}

func (f *TickFile) Close() {
	_ = f.reader.Close()
}

func (f *TickFile) EntryCount() int64 {
	return f.count
}

// LoadSeries reads all ticks in [from, to] into a validated feed series.
func (f *TickFile) LoadSeries(from, to time.Time) (feed.Series, error) {
	var ticks []common.Tick

	idx, err := f.searchStart(from.UnixNano())
	if err != nil {
		return feed.Series{}, err
	}

	for ; idx < f.count; idx++ {
		rec, err := f.readAt(idx)
		if err != nil {
			return feed.Series{}, err
		}
		if rec.TimeStamp > to.UnixNano() {
			break
		}
		ticks = append(ticks, rec.toTick(f.symbol))
	}

	return feed.NewSeries(f.symbol, ticks, nil)
}

func (f *TickFile) readAt(index int64) (record, error) {
	var buffer [unsafe.Sizeof(record{})]byte

	n, err := f.reader.ReadAt(buffer[:], index*recordSize)
	if err != nil && err != io.EOF {
		return record{}, fmt.Errorf("unable to read entry %d of %q: %w", index, f.path, err)
	}
	if n < len(buffer) {
		return record{}, fmt.Errorf("short read at entry %d of %q", index, f.path)
	}

	return *(*record)(unsafe.Pointer(&buffer[0])), nil // #nosec G103
}

// searchStart binary-searches for the first record with timestamp >= from.
func (f *TickFile) searchStart(from int64) (int64, error) {
	low := int64(0)
	high := f.count - 1

	for low <= high {
		mid := (low + high) / 2

		rec, err := f.readAt(mid)
		if err != nil {
			return 0, err
		}

		if rec.TimeStamp < from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return low, nil
}

func (r record) toTick(symbol string) common.Tick {
	return common.Tick{
		Source:    sourceName,
		Symbol:    symbol,
		TimeStamp: time.Unix(0, r.TimeStamp),
		Bid:       fixed.FromFloat64(r.Bid),
		Ask:       fixed.FromFloat64(r.Ask),
		BidVolume: fixed.FromFloat64(r.BidVolume),
		AskVolume: fixed.FromFloat64(r.AskVolume),
	}
}
