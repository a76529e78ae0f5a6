package feed

import (
	"container/heap"
	"sort"
	"time"

	"github.com/quantfabric/replay/pkg/common"
)

type Resolution int

const (
	// ResolutionAll replays every tick and bar present in the input.
	ResolutionAll Resolution = iota
	// ResolutionTick drops bar series at construction.
	ResolutionTick
	// ResolutionBar drops tick series at construction. No sub-bar data is
	// synthesized for instruments that only have bars.
	ResolutionBar
)

// cursor walks one instrument's ticks or bars. A series contributes one
// cursor per kind so ticks and bars interleave correctly.
type cursor struct {
	kind     Kind
	priority int // fixed per instrument, assigned at construction
	ticks    []common.Tick
	bars     []common.Bar
	idx      int
}

// Merger produces the union of all input series as a single non-decreasing
// event sequence. Ties break on (kind, instrument priority, input order), so
// a replay over the same inputs is byte-for-byte reproducible. Each event is
// yielded exactly once; a fresh run needs a fresh Merger.
type Merger struct {
	cursors mergeHeap
	first   time.Time
	last    time.Time
	empty   bool
}

func NewMerger(resolution Resolution, series ...Series) (*Merger, error) {
	// Instrument priority follows lexical symbol order, independent of the
	// order the series were passed in.
	ordered := make([]Series, len(series))
	copy(ordered, series)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Symbol < ordered[j].Symbol })

	m := &Merger{empty: true}
	for _, s := range ordered {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	for prio, s := range ordered {
		if len(s.Ticks) > 0 && resolution != ResolutionBar {
			m.cursors = append(m.cursors, &cursor{kind: KindTick, priority: prio, ticks: s.Ticks})
		}
		if len(s.Bars) > 0 && resolution != ResolutionTick {
			m.cursors = append(m.cursors, &cursor{kind: KindBar, priority: prio, bars: s.Bars})
		}
	}
	heap.Init(&m.cursors)

	if len(m.cursors) > 0 {
		m.empty = false
		m.first = m.cursors[0].headTime()
		for _, c := range m.cursors {
			if tail := c.tailTime(); tail.After(m.last) {
				m.last = tail
			}
		}
	}
	return m, nil
}

// Bounds returns the first and last timestamps of the merged stream, valid
// until drained. ok is false for an empty merger.
func (m *Merger) Bounds() (first, last time.Time, ok bool) {
	if m.empty {
		return time.Time{}, time.Time{}, false
	}
	return m.first, m.last, true
}

// PeekNextTime reports the timestamp of the next undelivered event.
func (m *Merger) PeekNextTime() (time.Time, bool) {
	if len(m.cursors) == 0 {
		return time.Time{}, false
	}
	return m.cursors[0].headTime(), true
}

// DrainUpTo pops every event with timestamp <= t, in merge order.
func (m *Merger) DrainUpTo(t time.Time) []Event {
	var events []Event
	for len(m.cursors) > 0 {
		head := m.cursors[0]
		if head.headTime().After(t) {
			break
		}
		events = append(events, head.pop())
		if head.exhausted() {
			heap.Pop(&m.cursors)
		} else {
			heap.Fix(&m.cursors, 0)
		}
	}
	return events
}

func (c *cursor) headTime() time.Time {
	if c.kind == KindTick {
		return c.ticks[c.idx].TimeStamp
	}
	return c.bars[c.idx].TimeStamp
}

func (c *cursor) tailTime() time.Time {
	if c.kind == KindTick {
		return c.ticks[len(c.ticks)-1].TimeStamp
	}
	return c.bars[len(c.bars)-1].TimeStamp
}

func (c *cursor) pop() Event {
	var ev Event
	if c.kind == KindTick {
		ev = TickEvent(c.ticks[c.idx])
	} else {
		ev = BarEvent(c.bars[c.idx])
	}
	c.idx++
	return ev
}

func (c *cursor) exhausted() bool {
	if c.kind == KindTick {
		return c.idx >= len(c.ticks)
	}
	return c.idx >= len(c.bars)
}

type mergeHeap []*cursor

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	ti, tj := h[i].headTime(), h[j].headTime()
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	if h[i].kind != h[j].kind {
		return h[i].kind < h[j].kind // ticks before bars
	}
	return h[i].priority < h[j].priority
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x interface{}) {
	*h = append(*h, x.(*cursor))
}

func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
