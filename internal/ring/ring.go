// Package ring provides a bounded, append-only buffer that compacts in
// batches instead of dropping one element per append.
package ring

// Buffer keeps at most capacity elements in a fixed circular array. When
// an append pushes the length past capacity, the oldest elements are
// dropped in one step so that only the newest retain elements remain.
// Appends never allocate. Buffer is not safe for concurrent use; owners
// guard it with their own lock.
type Buffer[T any] struct {
	items  []T
	head   int // Index of the oldest element
	count  int
	retain int
}

// New creates a buffer. retain is clamped to [1, capacity].
func New[T any](capacity, retain int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	if retain < 1 || retain > capacity {
		retain = capacity
	}
	return &Buffer[T]{
		items:  make([]T, capacity),
		retain: retain,
	}
}

// Append adds v and compacts if needed. It reports how many elements
// were dropped.
func (b *Buffer[T]) Append(v T) int {
	dropped := 0
	if b.count == len(b.items) {
		dropped = len(b.items) + 1 - b.retain
		b.discard(dropped)
	}
	b.items[b.slot(b.count)] = v
	b.count++
	return dropped
}

// discard drops the n oldest elements, clearing their slots.
func (b *Buffer[T]) discard(n int) {
	var zero T
	for i := 0; i < n; i++ {
		b.items[b.head] = zero
		b.head = (b.head + 1) % len(b.items)
	}
	b.count -= n
}

func (b *Buffer[T]) slot(i int) int {
	return (b.head + i) % len(b.items)
}

// Last returns a copy of the newest n elements, oldest first.
func (b *Buffer[T]) Last(n int) []T {
	if n <= 0 {
		return []T{}
	}
	n = min(n, b.count)
	out := make([]T, n)
	start := b.slot(b.count - n)
	k := copy(out, b.items[start:min(start+n, len(b.items))])
	copy(out[k:], b.items[:n-k])
	return out
}

// Each calls fn for every element, oldest first, until fn returns false.
func (b *Buffer[T]) Each(fn func(T) bool) {
	for i := 0; i < b.count; i++ {
		if !fn(b.items[b.slot(i)]) {
			return
		}
	}
}

// At returns the i-th element, oldest first.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.count {
		panic("ring: index out of range")
	}
	return b.items[b.slot(i)]
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Capacity returns the configured capacity.
func (b *Buffer[T]) Capacity() int {
	return len(b.items)
}
