package mrapps

import (
	"context"

	"browsercouch/map_reduce/mr"
	"browsercouch/store"
)

// Table is the query surface of a computed view with string keys.
type Table interface {
	Len() int
	FindRow(key string) int
	MarshalRange(lo, hi int) ([]byte, error)
}

// Config tunes how a view is built.
type Config struct {
	ChunkSize int
	Workers   int
	Progress  mr.ProgressFunc
}

// Builder computes a named view over db.
type Builder func(ctx context.Context, db *store.DB, cfg Config) (Table, error)

//
// Registry returns a fresh table of the known views:
//
//	wc       reduced word counts
//	words    map-only (word, 1) rows, one per occurrence
//	indexer  reduced word -> documents index
//
func Registry() map[string]Builder {
	return map[string]Builder{
		"wc": func(ctx context.Context, db *store.DB, cfg Config) (Table, error) {
			return build(ctx, db, cfg, mr.Define[string, int](&WcMapReduce{}))
		},
		"words": func(ctx context.Context, db *store.DB, cfg Config) (Table, error) {
			wc := &WcMapReduce{}
			return build(ctx, db, cfg, mr.Options[string, int]{Map: wc.Map})
		},
		"indexer": func(ctx context.Context, db *store.DB, cfg Config) (Table, error) {
			return build(ctx, db, cfg, mr.Define[string, string](&IndexerMapReduce{}))
		},
	}
}

func build[V any](ctx context.Context, db *store.DB, cfg Config, opts mr.Options[string, V]) (Table, error) {
	opts.ChunkSize = cfg.ChunkSize
	opts.Workers = cfg.Workers
	opts.Progress = cfg.Progress
	view, err := store.ComputeView(ctx, db, opts)
	if err != nil {
		return nil, err
	}
	return view, nil
}
