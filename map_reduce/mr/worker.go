package mr

import (
	"cmp"

	"golang.org/x/sync/errgroup"
)

// mapDocument fetches one document and records everything map emits for it.
func mapDocument[K cmp.Ordered, V any](src Source, fn MapFunc[K, V], index *MapIndex[K, V], id string) error {
	doc, err := src.Get(id)
	if err != nil {
		return &ComputeError{Phase: PhaseMap, ID: id, Err: err}
	}
	err = call(func() error {
		return fn(doc, func(key K, value V) {
			index.Emit(id, key, value)
		})
	})
	if err != nil {
		return &ComputeError{Phase: PhaseMap, ID: id, Err: err}
	}
	return nil
}

func mapChunk[K cmp.Ordered, V any](src Source, fn MapFunc[K, V], index *MapIndex[K, V], ids []string) error {
	for _, id := range ids {
		if err := mapDocument(src, fn, index, id); err != nil {
			return err
		}
	}
	return nil
}

//
// parallelMapStep hands up to Workers disjoint chunks to the pool. Every
// worker fills its own MapIndex; the partials are merged here, in chunk
// order, once all of them have returned. src.Get must be safe for
// concurrent use.
//
func (j *Job[K, V]) parallelMapStep() error {
	var g errgroup.Group
	g.SetLimit(j.opts.Workers)

	partials := make([]*MapIndex[K, V], 0, j.opts.Workers)
	lo := j.cursor
	for w := 0; w < j.opts.Workers && lo < len(j.ids); w++ {
		hi := min(lo+j.chunkSize, len(j.ids))
		chunk := j.ids[lo:hi]
		part := NewMapIndex[K, V]()
		partials = append(partials, part)
		g.Go(func() error {
			return mapChunk(j.src, j.opts.Map, part, chunk)
		})
		lo = hi
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, part := range partials {
		j.index.Merge(part)
	}
	debugf(j.logger, "merged %v partial indexes, cursor %v -> %v\n", len(partials), j.cursor, lo)
	j.cursor = lo
	return nil
}
