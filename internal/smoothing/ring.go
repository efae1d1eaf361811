// Package smoothing turns noisy per-frame measurements into stable signals using
// short bounded histories.
package smoothing

// Ring is a bounded FIFO. Pushing onto a full ring evicts the oldest item.
type Ring[T any] struct {
	items []T
	start int
	size  int
}

// NewRing creates a ring holding at most capacity items. A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends v, evicting the oldest item when full.
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.items) {
		r.items[(r.start+r.size)%len(r.items)] = v
		r.size++
		return
	}
	r.items[r.start] = v
	r.start = (r.start + 1) % len(r.items)
}

// Len returns the number of items held.
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap returns the maximum number of items.
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Full reports whether the ring holds Cap items.
func (r *Ring[T]) Full() bool {
	return r.size == len(r.items)
}

// At returns the i-th item, oldest first.
func (r *Ring[T]) At(i int) T {
	return r.items[(r.start+i)%len(r.items)]
}

// Slice returns the items oldest first in a new slice.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Clear removes all items.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.start = 0
	r.size = 0
}
