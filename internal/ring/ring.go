// Package ring provides the fixed-capacity FIFO used by every rolling
// history in the pipeline: samples, measurement regions, spectra and raw BPM
// estimates.
package ring

// Buffer is a sliding window of the most recent values. Adding beyond
// capacity overwrites the oldest entry. Buffer is not safe for concurrent
// use; owners guard it.
type Buffer[T any] struct {
	items    []T
	capacity int
	head     int // next write position
	size     int
}

// New creates a buffer holding at most capacity values.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add stores v, evicting the oldest value when full.
func (b *Buffer[T]) Add(v T) {
	b.items[b.head] = v
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Previous returns the value n steps back from the most recent.
// Previous(1) is the newest value. ok is false if it does not exist.
func (b *Buffer[T]) Previous(n int) (v T, ok bool) {
	if n < 1 || n > b.size {
		return v, false
	}
	return b.items[(b.head-n+b.capacity)%b.capacity], true
}

// Len returns the number of stored values.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the maximum number of stored values.
func (b *Buffer[T]) Cap() int { return b.capacity }

// Clear removes all values.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.size = 0
}

// All returns a copy of the stored values from oldest to newest.
func (b *Buffer[T]) All() []T {
	if b.size == 0 {
		return nil
	}
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head-b.size+i+b.capacity)%b.capacity]
	}
	return out
}

// Each calls fn for every value from oldest to newest without copying.
func (b *Buffer[T]) Each(fn func(T)) {
	for i := 0; i < b.size; i++ {
		fn(b.items[(b.head-b.size+i+b.capacity)%b.capacity])
	}
}
