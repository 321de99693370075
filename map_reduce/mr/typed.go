package mr

import (
	"cmp"
	"fmt"
	"log"
	"time"
)

// 没有指定时的默认值
const (
	// DefaultChunkSize is the number of documents (or distinct keys) handled
	// before the engine yields.
	DefaultChunkSize = 1000
	// DefaultBreatheTime is how long the default progress func waits before
	// resuming.
	DefaultBreatheTime = 50 * time.Millisecond
)

// Phase names the half of the computation that is running.
type Phase string

const (
	PhaseMap    Phase = "map"
	PhaseReduce Phase = "reduce"
)

//
// Document is an application record. The engine only reads it.
//
type Document map[string]interface{}

// ID returns the document's "id" field.
func (d Document) ID() string {
	switch id := d["id"].(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

//
// Source is the snapshot-able document collection a view is computed over.
// Keys must stay in the same order for the duration of one computation.
//
type Source interface {
	Keys() []string
	Get(id string) (Document, error)
}

// Emission is one value emitted under a key, tagged with its document.
type Emission[V any] struct {
	ID    string
	Value V
}

// KeyDoc pairs an emitted key with the document that emitted it.
type KeyDoc[K cmp.Ordered] struct {
	Key K
	ID  string
}

// MapFunc is called once per document and may emit any number of pairs.
type MapFunc[K cmp.Ordered, V any] func(doc Document, emit func(key K, value V)) error

// ReduceFunc folds every emission of one key. keys and values are parallel.
type ReduceFunc[K cmp.Ordered, V any] func(keys []KeyDoc[K], values []V) (V, error)

//
// ProgressFunc is called at every chunk boundary while work remains.
// The computation does not continue until resume is invoked, which may
// happen synchronously or from any goroutine later on.
//
type ProgressFunc func(phase Phase, fraction float64, resume func())

// Options configures one view computation.
type Options[K cmp.Ordered, V any] struct {
	Map    MapFunc[K, V]
	Reduce ReduceFunc[K, V]
	// 0 means DefaultChunkSize
	ChunkSize int
	// nil means Breathe(DefaultBreatheTime)
	Progress ProgressFunc
	// Workers > 1 runs the map phase on a worker pool.
	Workers  int
	Finished func(view *View[K, V])
	OnError  func(err error)
	Logger   *log.Logger
}

// MapReduce bundles the two user functions of a view definition.
type MapReduce[K cmp.Ordered, V any] interface {
	Map(doc Document, emit func(key K, value V)) error
	Reduce(keys []KeyDoc[K], values []V) (V, error)
}

// Define returns Options running m's map and reduce functions.
func Define[K cmp.Ordered, V any](m MapReduce[K, V]) Options[K, V] {
	return Options[K, V]{Map: m.Map, Reduce: m.Reduce}
}
