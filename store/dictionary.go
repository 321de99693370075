package store

import (
	"errors"
	"sync"

	"browsercouch/map_reduce/mr"
)

var ErrNotFound = errors.New("store: document not found")

//
// Dictionary maps document ids to documents and remembers the order in
// which ids were first set. It is safe for concurrent use.
//
type Dictionary struct {
	mu   sync.RWMutex
	dict map[string]mr.Document
	keys []string
}

func NewDictionary() *Dictionary {
	return &Dictionary{dict: map[string]mr.Document{}}
}

func (d *Dictionary) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.dict[id]
	return ok
}

func (d *Dictionary) Get(id string) (mr.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.dict[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (d *Dictionary) Set(id string, doc mr.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dict[id]; !ok {
		d.keys = append(d.keys, id)
	}
	d.dict[id] = doc
}

// Remove deletes id, reporting whether it was present.
func (d *Dictionary) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dict[id]; !ok {
		return false
	}
	delete(d.dict, id)
	for i, k := range d.keys {
		if k == id {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns a snapshot of the ids in insertion order.
func (d *Dictionary) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.keys...)
}

func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.keys)
}

func (d *Dictionary) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dict = map[string]mr.Document{}
	d.keys = nil
}

// Pickle returns the documents in key order.
func (d *Dictionary) Pickle() []mr.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	docs := make([]mr.Document, len(d.keys))
	for i, k := range d.keys {
		docs[i] = d.dict[k]
	}
	return docs
}

// Unpickle replaces the contents with docs, keyed by their ids.
func (d *Dictionary) Unpickle(docs []mr.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dict = make(map[string]mr.Document, len(docs))
	d.keys = make([]string, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		if _, ok := d.dict[id]; !ok {
			d.keys = append(d.keys, id)
		}
		d.dict[id] = doc
	}
}
