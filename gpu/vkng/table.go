package vkng

// table maps backend-neutral handles to Vulkan objects. Handles start at 1
// so the zero value stays the null handle.
type table[T any] struct {
	next  uint64
	items map[uint64]T
}

func newTable[T any]() *table[T] {
	return &table[T]{items: map[uint64]T{}}
}

func (t *table[T]) add(v T) uint64 {
	t.next++
	t.items[t.next] = v
	return t.next
}

func (t *table[T]) get(h uint64) (T, bool) {
	v, ok := t.items[h]
	return v, ok
}

func (t *table[T]) remove(h uint64) (T, bool) {
	v, ok := t.items[h]
	if ok {
		delete(t.items, h)
	}
	return v, ok
}

func (t *table[T]) len() int {
	return len(t.items)
}
