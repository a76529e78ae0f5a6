package utility

// Sequence hands out monotonically increasing identifiers starting at 1.
// Order and fill ids come from per-run sequences rather than wall-clock based
// generators, so that two runs over the same input produce identical records.
type Sequence struct {
	last uint64
}

func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

func (s *Sequence) Reset() {
	s.last = 0
}
