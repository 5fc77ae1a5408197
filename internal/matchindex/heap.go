package matchindex

import "container/heap"

// indexedHeap is a min-heap keyed by K with O(log n) upsert/remove and
// O(1) top, implemented as container/heap plus a side table mapping each
// key to its current slot. This is the "indexed binary heap" that
// SPEC_FULL.md §4.2 describes; no example repo in the retrieval pack imports a third-party
// priority-queue library for this (hashicorp/nomad and
// thrasher-corp/gocryptotrader both hand-roll container/heap too), so this
// stays on the standard library.
type indexedHeap[K comparable, V any] struct {
	items []entry[K, V]
	pos   map[K]int
	less  func(a, b V) bool
}

type entry[K comparable, V any] struct {
	key K
	val V
}

func newIndexedHeap[K comparable, V any](less func(a, b V) bool) *indexedHeap[K, V] {
	return &indexedHeap[K, V]{
		pos:  make(map[K]int),
		less: less,
	}
}

// Len, Less, Swap, Push, Pop implement heap.Interface.
func (h *indexedHeap[K, V]) Len() int { return len(h.items) }

func (h *indexedHeap[K, V]) Less(i, j int) bool { return h.less(h.items[i].val, h.items[j].val) }

func (h *indexedHeap[K, V]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i].key] = i
	h.pos[h.items[j].key] = j
}

func (h *indexedHeap[K, V]) Push(x any) {
	e := x.(entry[K, V])
	h.pos[e.key] = len(h.items)
	h.items = append(h.items, e)
}

func (h *indexedHeap[K, V]) Pop() any {
	old := h.items
	n := len(old)
	e := old[n-1]
	h.items = old[:n-1]
	delete(h.pos, e.key)
	return e
}

// Upsert inserts key with val, or updates it in place and re-heapifies if
// key was already present. Re-upserting an identical value is a no-op on
// the underlying slice positions (heap.Fix does not move anything when
// order is unchanged).
func (h *indexedHeap[K, V]) Upsert(key K, val V) {
	if i, ok := h.pos[key]; ok {
		h.items[i].val = val
		heap.Fix(h, i)
		return
	}
	heap.Push(h, entry[K, V]{key: key, val: val})
}

// Remove deletes key from the heap, if present. A Remove of an absent key
// is a no-op.
func (h *indexedHeap[K, V]) Remove(key K) {
	i, ok := h.pos[key]
	if !ok {
		return
	}
	heap.Remove(h, i)
}

// Top returns the key with the minimum value, or ok=false if empty.
func (h *indexedHeap[K, V]) Top() (key K, ok bool) {
	if len(h.items) == 0 {
		return key, false
	}
	return h.items[0].key, true
}

// PeekTop returns the key and value at the root, or ok=false if empty.
func (h *indexedHeap[K, V]) PeekTop() (key K, val V, ok bool) {
	if len(h.items) == 0 {
		return key, val, false
	}
	return h.items[0].key, h.items[0].val, true
}

// Contains reports whether key currently has an entry.
func (h *indexedHeap[K, V]) Contains(key K) bool {
	_, ok := h.pos[key]
	return ok
}

// Keys returns every key currently in the heap, in no particular order.
func (h *indexedHeap[K, V]) Keys() []K {
	out := make([]K, 0, len(h.items))
	for _, e := range h.items {
		out = append(out, e.key)
	}
	return out
}
