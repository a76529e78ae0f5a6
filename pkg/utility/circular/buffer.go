// Package circular provides a fixed-capacity ring buffer for rolling-window
// calculations over streams.
package circular

// Buffer overwrites its oldest element once full.
type Buffer[T any] struct {
	data []T
	next int
	full bool
}

func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("circular: capacity must be positive")
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

func (b *Buffer[T]) Cap() int { return len(b.data) }

func (b *Buffer[T]) Len() int {
	if b.full {
		return len(b.data)
	}
	return b.next
}

func (b *Buffer[T]) Full() bool { return b.full }

func (b *Buffer[T]) Push(value T) {
	b.data[b.next] = value
	b.next++
	if b.next == len(b.data) {
		b.next = 0
		b.full = true
	}
}

// At returns the idx-th most recent element, 0 being the latest push.
func (b *Buffer[T]) At(idx int) T {
	if idx < 0 || idx >= b.Len() {
		panic("circular: index out of range")
	}
	pos := b.next - 1 - idx
	if pos < 0 {
		pos += len(b.data)
	}
	return b.data[pos]
}

func (b *Buffer[T]) Latest() T { return b.At(0) }
func (b *Buffer[T]) Oldest() T { return b.At(b.Len() - 1) }

// Window copies the contents oldest to newest.
func (b *Buffer[T]) Window() []T {
	n := b.Len()
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = b.At(n - 1 - i)
	}
	return out
}
