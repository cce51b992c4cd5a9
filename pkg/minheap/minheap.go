// Package minheap provides a comparator-ordered binary min-heap.
//
// The heap is stored 1-indexed (slot 0 is unused) so the parent of i is i/2
// and its children are 2i and 2i+1. It avoids container/heap to skip the
// interface{} boxing on every push and pop.
package minheap

// Heap is a binary min-heap of T ordered by a three-way comparator.
// It is not safe for concurrent use.
type Heap[T any] struct {
	items []T
	cmp   func(a, b T) int
}

// New returns an empty heap ordered by cmp.
func New[T any](cmp func(a, b T) int) *Heap[T] {
	return NewWithCapacity(cmp, 0)
}

// NewWithCapacity returns an empty heap with room for n items.
func NewWithCapacity[T any](cmp func(a, b T) int, n int) *Heap[T] {
	items := make([]T, 1, n+1)
	return &Heap[T]{items: items, cmp: cmp}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int {
	return len(h.items) - 1
}

// Insert adds x and restores the heap property by sifting it up.
func (h *Heap[T]) Insert(x T) {
	h.items = append(h.items, x)
	cur := h.Len()
	for cur > 1 {
		parent := cur / 2
		if h.cmp(h.items[cur], h.items[parent]) >= 0 {
			break
		}
		h.items[cur], h.items[parent] = h.items[parent], h.items[cur]
		cur = parent
	}
}

// Peek returns the minimum without removing it.
func (h *Heap[T]) Peek() (T, bool) {
	if h.Len() == 0 {
		var zero T
		return zero, false
	}
	return h.items[1], true
}

// Extract removes and returns the minimum.
func (h *Heap[T]) Extract() (T, bool) {
	n := h.Len()
	if n == 0 {
		var zero T
		return zero, false
	}
	top := h.items[1]

	h.items[1] = h.items[n]
	var zero T
	h.items[n] = zero
	h.items = h.items[:n]
	n--

	cur := 1
	for {
		smallest := cur
		if l := 2 * cur; l <= n && h.cmp(h.items[l], h.items[smallest]) < 0 {
			smallest = l
		}
		if r := 2*cur + 1; r <= n && h.cmp(h.items[r], h.items[smallest]) < 0 {
			smallest = r
		}
		if smallest == cur {
			break
		}
		h.items[cur], h.items[smallest] = h.items[smallest], h.items[cur]
		cur = smallest
	}
	return top, true
}

// Heapify inserts every item in order. This is O(n log n) rather than the
// bottom-up O(n) build; n is the merge fan-in, not the line count.
func (h *Heap[T]) Heapify(items []T) {
	for _, x := range items {
		h.Insert(x)
	}
}
