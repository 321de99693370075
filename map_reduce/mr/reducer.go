package mr

import (
	"cmp"
	"fmt"
	"sort"
)

// reduceKeys calls fn once per key and appends the reduced rows.
func reduceKeys[K cmp.Ordered, V any](fn ReduceFunc[K, V], index *MapIndex[K, V], keys []K, rows []Row[K, V]) ([]Row[K, V], error) {
	for _, key := range keys {
		items := index.Emissions(key)
		pairs := make([]KeyDoc[K], len(items))
		values := make([]V, len(items))
		for i, e := range items {
			pairs[i] = KeyDoc[K]{Key: key, ID: e.ID}
			values[i] = e.Value
		}
		var out V
		err := call(func() (err error) {
			out, err = fn(pairs, values)
			return err
		})
		if err != nil {
			return rows, &ComputeError{Phase: PhaseReduce, Key: fmt.Sprint(key), Err: err}
		}
		rows = append(rows, Row[K, V]{Key: key, Value: out})
	}
	return rows, nil
}

//
// flatten turns a sorted index into map-only rows: keys ascending, and
// rows of one key ordered by document id. Emission order is kept among
// rows of the same document.
//
func flatten[K cmp.Ordered, V any](index *MapIndex[K, V]) *View[K, V] {
	rows := make([]Row[K, V], 0, index.Count())
	keyRows := make([]keyRow[K], 0, index.Len())
	for _, key := range index.Keys() {
		start := len(rows)
		keyRows = append(keyRows, keyRow[K]{key: key, pos: start})
		for _, e := range index.Emissions(key) {
			rows = append(rows, Row[K, V]{ID: e.ID, Key: key, Value: e.Value})
		}
		group := rows[start:]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ID < group[j].ID
		})
	}
	return newMapView(rows, keyRows)
}
