package store

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"browsercouch/map_reduce/mr"
)

const dbPrefix = "BrowserCouch_DB_"

var ErrNoID = errors.New("store: document has no id")

//
// DB is a named document collection whose contents are committed to a
// Storage after every change. Views are computed over its documents.
//
type DB struct {
	name    string
	storage Storage
	dict    *Dictionary
	logger  *log.Logger
	// serializes commits
	mu sync.Mutex
}

// Open loads the database called name from storage, or starts an empty one.
func Open(name string, storage Storage, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	db := &DB{
		name:    dbPrefix + name,
		storage: storage,
		dict:    NewDictionary(),
		logger:  logger,
	}
	blob, ok, err := storage.Load(db.name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", db.name, err)
	}
	if ok {
		var docs []mr.Document
		dec := json.NewDecoder(bytes.NewReader(blob))
		dec.UseNumber()
		if err := dec.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", db.name, err)
		}
		db.dict.Unpickle(docs)
	}
	logger.Printf("opened %s with %d documents", db.name, db.dict.Len())
	return db, nil
}

func (db *DB) commit() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	blob, err := json.Marshal(db.dict.Pickle())
	if err != nil {
		return fmt.Errorf("encode %s: %w", db.name, err)
	}
	if err := db.storage.Save(db.name, blob); err != nil {
		return fmt.Errorf("save %s: %w", db.name, err)
	}
	return nil
}

func (db *DB) Get(id string) (mr.Document, error) {
	return db.dict.Get(id)
}

// Put stores every document under its id, replacing older versions.
func (db *DB) Put(docs ...mr.Document) error {
	for _, doc := range docs {
		if doc.ID() == "" {
			return ErrNoID
		}
	}
	for _, doc := range docs {
		db.dict.Set(doc.ID(), doc)
	}
	return db.commit()
}

func (db *DB) Delete(id string) error {
	if !db.dict.Remove(id) {
		return ErrNotFound
	}
	return db.commit()
}

// Wipe removes every document.
func (db *DB) Wipe() error {
	db.dict.Clear()
	return db.commit()
}

func (db *DB) Len() int {
	return db.dict.Len()
}

// Source exposes the documents to the view engine.
func (db *DB) Source() mr.Source {
	return db.dict
}

// View starts a computation over db; see mr.Start.
func View[K cmp.Ordered, V any](db *DB, opts mr.Options[K, V]) (*mr.Job[K, V], error) {
	if opts.Logger == nil {
		opts.Logger = db.logger
	}
	return mr.Start[K, V](db.dict, opts)
}

// ComputeView runs a computation over db to completion; see mr.Compute.
func ComputeView[K cmp.Ordered, V any](ctx context.Context, db *DB, opts mr.Options[K, V]) (*mr.View[K, V], error) {
	if opts.Logger == nil {
		opts.Logger = db.logger
	}
	return mr.Compute[K, V](ctx, db.dict, opts)
}
