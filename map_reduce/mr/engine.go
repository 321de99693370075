package mr

import (
	"cmp"
	"context"
	"io"
	"log"
	"sync"
)

//
// Job is one view computation. It is a resumable state machine: the
// cursor is the next document (map phase) or key (reduce phase) to
// process, and nothing else is carried across a yield.
//
type Job[K cmp.Ordered, V any] struct {
	src       Source
	opts      Options[K, V]
	chunkSize int
	logger    *log.Logger

	ids    []string
	index  *MapIndex[K, V]
	rows   []Row[K, V]
	view   *View[K, V]
	cursor int

	mu    sync.Mutex
	phase Phase
	done  bool
	// yield bookkeeping
	token   uint64
	waiting bool
	inYield bool
	again   bool
}

func newJob[K cmp.Ordered, V any](src Source, opts Options[K, V]) (*Job[K, V], error) {
	if src == nil {
		return nil, &ConfigError{Err: ErrNoSource}
	}
	if opts.Map == nil {
		return nil, &ConfigError{Err: ErrNoMap}
	}
	if opts.ChunkSize < 0 {
		return nil, &ConfigError{Err: ErrChunkSize}
	}
	j := &Job[K, V]{
		src:       src,
		opts:      opts,
		chunkSize: opts.ChunkSize,
		logger:    opts.Logger,
		phase:     PhaseMap,
		index:     NewMapIndex[K, V](),
	}
	if j.chunkSize == 0 {
		j.chunkSize = DefaultChunkSize
	}
	if j.opts.Progress == nil {
		j.opts.Progress = Breathe(DefaultBreatheTime)
	}
	if j.logger == nil {
		j.logger = log.New(io.Discard, "", 0)
	}
	return j, nil
}

//
// Start validates opts, snapshots the document ids of src and runs until
// the first yield. Exactly one of opts.Finished or opts.OnError is called
// once the computation ends. Configuration errors are returned directly
// and nothing is scheduled.
//
func Start[K cmp.Ordered, V any](src Source, opts Options[K, V]) (*Job[K, V], error) {
	j, err := newJob(src, opts)
	if err != nil {
		return nil, err
	}
	if opts.Finished == nil {
		return nil, &ConfigError{Err: ErrNoFinished}
	}
	j.ids = append([]string(nil), src.Keys()...)
	debugf(j.logger, "view start docs=%v chunk=%v workers=%v\n", len(j.ids), j.chunkSize, j.opts.Workers)
	j.run()
	return j, nil
}

//
// Compute runs a computation to completion and returns its view. It resumes
// at once after each chunk unless opts.Progress says otherwise. If ctx is
// done the computation is abandoned at the next chunk boundary.
//
func Compute[K cmp.Ordered, V any](ctx context.Context, src Source, opts Options[K, V]) (*View[K, V], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		view *View[K, V]
		err  error
	}
	ch := make(chan result, 1)
	schedule := opts.Progress
	if schedule == nil {
		schedule = Immediate
	}
	opts.Progress = func(phase Phase, fraction float64, resume func()) {
		if ctx.Err() != nil {
			return
		}
		schedule(phase, fraction, func() {
			if ctx.Err() == nil {
				resume()
			}
		})
	}
	opts.Finished = func(view *View[K, V]) { ch <- result{view: view} }
	opts.OnError = func(err error) { ch <- result{err: err} }
	if _, err := Start(src, opts); err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.view, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job[K, V]) Phase() Phase {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.phase
}

// Done reports whether a terminal callback has been made.
func (j *Job[K, V]) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

// run processes chunks until the job yields without being resumed inline,
// or ends.
func (j *Job[K, V]) run() {
	for {
		more, err := j.step()
		if err != nil {
			j.fail(err)
			return
		}
		if !more {
			j.finish()
			return
		}

		j.mu.Lock()
		j.token++
		token := j.token
		phase := j.phase
		j.waiting = true
		j.inYield = true
		j.again = false
		j.mu.Unlock()

		j.opts.Progress(phase, j.fraction(), func() { j.resume(token) })

		j.mu.Lock()
		j.inYield = false
		again := j.again
		j.mu.Unlock()
		if !again {
			return
		}
	}
}

// resume continues after the yield identified by token. Late or repeated
// calls are ignored; a call made while Progress is still running is picked
// up by run once Progress returns.
func (j *Job[K, V]) resume(token uint64) {
	j.mu.Lock()
	if token != j.token || !j.waiting {
		j.mu.Unlock()
		return
	}
	j.waiting = false
	if j.inYield {
		j.again = true
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()
	j.run()
}

func (j *Job[K, V]) fraction() float64 {
	total := len(j.ids)
	if j.phase == PhaseReduce {
		total = j.index.Len()
	}
	if total == 0 {
		return 1
	}
	return float64(j.cursor) / float64(total)
}

// step processes one chunk and reports whether work remains.
func (j *Job[K, V]) step() (bool, error) {
	if j.phase == PhaseMap {
		var err error
		if j.opts.Workers > 1 {
			err = j.parallelMapStep()
		} else {
			err = j.mapStep()
		}
		if err != nil {
			return false, err
		}
		if j.cursor < len(j.ids) {
			return true, nil
		}
		j.endMap()
		if j.view != nil {
			return false, nil
		}
	}

	keys := j.index.Keys()
	hi := min(j.cursor+j.chunkSize, len(keys))
	rows, err := reduceKeys(j.opts.Reduce, j.index, keys[j.cursor:hi], j.rows)
	if err != nil {
		return false, err
	}
	j.rows = rows
	j.cursor = hi
	if j.cursor < len(keys) {
		return true, nil
	}
	j.view = newReducedView(j.rows)
	return false, nil
}

func (j *Job[K, V]) mapStep() error {
	hi := min(j.cursor+j.chunkSize, len(j.ids))
	if err := mapChunk(j.src, j.opts.Map, j.index, j.ids[j.cursor:hi]); err != nil {
		return err
	}
	j.cursor = hi
	return nil
}

// endMap sorts the index and either builds the map-only view or moves on
// to the reduce phase.
func (j *Job[K, V]) endMap() {
	j.index.Sort()
	j.logger.Printf("map phase done: %d documents, %d keys, %d emissions", len(j.ids), j.index.Len(), j.index.Count())
	if j.opts.Reduce == nil {
		j.view = flatten(j.index)
		j.index = nil
		return
	}
	j.mu.Lock()
	j.phase = PhaseReduce
	j.mu.Unlock()
	j.cursor = 0
}

func (j *Job[K, V]) finish() {
	j.mu.Lock()
	j.done = true
	j.mu.Unlock()
	view := j.view
	j.index, j.rows, j.view = nil, nil, nil
	j.logger.Printf("view done: %d rows", view.Len())
	j.opts.Finished(view)
}

func (j *Job[K, V]) fail(err error) {
	j.mu.Lock()
	j.done = true
	j.mu.Unlock()
	j.index, j.rows, j.view = nil, nil, nil
	j.logger.Printf("view failed: %v", err)
	if j.opts.OnError != nil {
		j.opts.OnError(err)
	}
}
