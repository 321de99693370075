package mr

import (
	"cmp"
	"sort"
)

//
// MapIndex accumulates the emissions of a map phase: for every distinct key,
// the emissions in the order they were made. The key list is kept in
// registration order until Sort is called once the phase is over.
//
type MapIndex[K cmp.Ordered, V any] struct {
	dict  map[K][]Emission[V]
	keys  []K
	count int
}

func NewMapIndex[K cmp.Ordered, V any]() *MapIndex[K, V] {
	return &MapIndex[K, V]{dict: map[K][]Emission[V]{}}
}

// Emit records value under key for document id.
func (m *MapIndex[K, V]) Emit(id string, key K, value V) {
	items, ok := m.dict[key]
	if !ok {
		m.keys = append(m.keys, key)
	}
	m.dict[key] = append(items, Emission[V]{ID: id, Value: value})
	m.count++
}

// Merge appends every emission list of other after the ones already held.
func (m *MapIndex[K, V]) Merge(other *MapIndex[K, V]) {
	for _, key := range other.keys {
		items, ok := m.dict[key]
		if !ok {
			m.keys = append(m.keys, key)
		}
		m.dict[key] = append(items, other.dict[key]...)
	}
	m.count += other.count
}

// Sort orders the distinct keys ascending.
func (m *MapIndex[K, V]) Sort() {
	sort.Stable(byKey[K](m.keys))
}

// Keys returns the distinct keys. Callers must not modify the slice.
func (m *MapIndex[K, V]) Keys() []K {
	return m.keys
}

// Emissions returns the emissions recorded for key, in emission order.
func (m *MapIndex[K, V]) Emissions(key K) []Emission[V] {
	return m.dict[key]
}

// Len returns the number of distinct keys.
func (m *MapIndex[K, V]) Len() int {
	return len(m.keys)
}

// Count returns the total number of emissions.
func (m *MapIndex[K, V]) Count() int {
	return m.count
}

// for sorting by key.
type byKey[K cmp.Ordered] []K

func (a byKey[K]) Len() int           { return len(a) }
func (a byKey[K]) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byKey[K]) Less(i, j int) bool { return cmp.Less(a[i], a[j]) }
