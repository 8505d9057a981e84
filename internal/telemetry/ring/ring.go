// Package ring provides a fixed-capacity FIFO buffer with silent eviction.
//
// All retention buffers in the telemetry core (span history, trace history,
// log entries, SLA measurements, breaches, alerts) are bounded: appending to
// a full buffer drops the oldest entry. Eviction is O(1); there is no
// capacity-exceeded signal.
//
// Buffers are not safe for concurrent use. The owning service serializes
// access behind its own mutex and snapshots under the lock.
package ring

// Buffer is a fixed-capacity circular buffer. The zero value is not usable;
// construct with New.
type Buffer[T any] struct {
	buf  []T
	head int // index of the oldest element
	size int
}

// New creates a buffer that retains at most capacity elements.
// Capacity must be positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{buf: make([]T, capacity)}
}

// Push appends v at the tail, evicting the oldest element when full.
func (b *Buffer[T]) Push(v T) {
	if b.size < len(b.buf) {
		b.buf[(b.head+b.size)%len(b.buf)] = v
		b.size++
		return
	}
	b.buf[b.head] = v
	b.head = (b.head + 1) % len(b.buf)
}

// Len returns the number of retained elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int { return len(b.buf) }

// At returns the element at position i, oldest first. Panics when out of
// range, matching slice semantics.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.size {
		panic("ring: index out of range")
	}
	return b.buf[(b.head+i)%len(b.buf)]
}

// Snapshot copies the retained elements into a new slice, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.buf[(b.head+i)%len(b.buf)]
	}
	return out
}

// DropWhile pops elements from the head while drop returns true, and
// reports how many were dropped. Buffers are appended in time order, so
// age-based retention trims only from the front.
func (b *Buffer[T]) DropWhile(drop func(T) bool) int {
	dropped := 0
	var zero T
	for b.size > 0 && drop(b.buf[b.head]) {
		b.buf[b.head] = zero
		b.head = (b.head + 1) % len(b.buf)
		b.size--
		dropped++
	}
	return dropped
}

// Clear removes all elements.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := 0; i < b.size; i++ {
		b.buf[(b.head+i)%len(b.buf)] = zero
	}
	b.head = 0
	b.size = 0
}
