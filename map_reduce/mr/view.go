package mr

import (
	"cmp"
	"encoding/json"
	"sort"
)

// Row is one result of a view. ID is empty for reduced rows.
type Row[K cmp.Ordered, V any] struct {
	ID    string `json:"id,omitempty"`
	Key   K      `json:"key"`
	Value V      `json:"value"`
}

// position of the first row of a key in a map-only view
type keyRow[K cmp.Ordered] struct {
	key K
	pos int
}

//
// View is the finished, immutable result of a computation. Rows are sorted
// by key; rows of a map-only view that share a key are sorted by document id.
//
type View[K cmp.Ordered, V any] struct {
	rows    []Row[K, V]
	keyRows []keyRow[K]
	reduced bool
}

func newReducedView[K cmp.Ordered, V any](rows []Row[K, V]) *View[K, V] {
	return &View[K, V]{rows: rows, reduced: true}
}

func newMapView[K cmp.Ordered, V any](rows []Row[K, V], keyRows []keyRow[K]) *View[K, V] {
	return &View[K, V]{rows: rows, keyRows: keyRows}
}

// Reduced reports whether the view holds one reduced row per key.
func (v *View[K, V]) Reduced() bool {
	return v.reduced
}

func (v *View[K, V]) Len() int {
	return len(v.rows)
}

func (v *View[K, V]) Row(i int) Row[K, V] {
	return v.rows[i]
}

// Rows returns a copy of all rows in order.
func (v *View[K, V]) Rows() []Row[K, V] {
	return append([]Row[K, V](nil), v.rows...)
}

//
// FindRow returns the index of the first row whose key is key. If there is
// none, it returns the number of rows with a smaller key, which is where
// such a row would be inserted.
//
func (v *View[K, V]) FindRow(key K) int {
	if v.reduced {
		return sort.Search(len(v.rows), func(i int) bool {
			return !cmp.Less(v.rows[i].Key, key)
		})
	}
	i := sort.Search(len(v.keyRows), func(i int) bool {
		return !cmp.Less(v.keyRows[i].key, key)
	})
	if i == len(v.keyRows) {
		return len(v.rows)
	}
	return v.keyRows[i].pos
}

// upper returns the index of the first row whose key is greater than key.
func (v *View[K, V]) upper(key K) int {
	return sort.Search(len(v.rows), func(i int) bool {
		return cmp.Less(key, v.rows[i].Key)
	})
}

// Lookup returns every row with the given key.
func (v *View[K, V]) Lookup(key K) []Row[K, V] {
	return v.slice(v.FindRow(key), v.upper(key))
}

// Range returns the rows with lo <= key < hi.
func (v *View[K, V]) Range(lo, hi K) []Row[K, V] {
	if !cmp.Less(lo, hi) {
		return nil
	}
	return v.slice(v.FindRow(lo), v.FindRow(hi))
}

func (v *View[K, V]) slice(lo, hi int) []Row[K, V] {
	if lo >= hi {
		return nil
	}
	return append([]Row[K, V](nil), v.rows[lo:hi]...)
}

// MarshalRange encodes rows[lo:hi] as a JSON array; bounds are clamped.
func (v *View[K, V]) MarshalRange(lo, hi int) ([]byte, error) {
	if lo < 0 {
		lo = 0
	}
	if hi > len(v.rows) {
		hi = len(v.rows)
	}
	if lo >= hi {
		return []byte("[]"), nil
	}
	return json.Marshal(v.rows[lo:hi])
}

func (v *View[K, V]) MarshalJSON() ([]byte, error) {
	rows := v.rows
	if rows == nil {
		rows = []Row[K, V]{}
	}
	return json.Marshal(struct {
		Rows []Row[K, V] `json:"rows"`
	}{rows})
}
