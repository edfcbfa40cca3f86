// ABOUTME: Encoding and loading of per-collection JSON documents in badger.
// ABOUTME: Enforces the storage quota before anything is committed.

package kv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/harper/diary/internal/store"
)

// item is one element of a collection document.
type item struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type document []item

func (d document) index(key string) int {
	for i, it := range d {
		if it.Key == key {
			return i
		}
	}
	return -1
}

// upsert replaces in place so the record keeps its position.
func (d document) upsert(rec store.Record) document {
	it := item{Key: rec.Key, Value: append(json.RawMessage(nil), rec.Value...)}
	if i := d.index(rec.Key); i >= 0 {
		d[i] = it
		return d
	}
	return append(d, it)
}

func (d document) remove(key string) document {
	i := d.index(key)
	if i < 0 {
		return d
	}
	return append(d[:i], d[i+1:]...)
}

func (d document) records() []store.Record {
	if len(d) == 0 {
		return nil
	}
	recs := make([]store.Record, len(d))
	for i, it := range d {
		recs[i] = store.Record{Key: it.Key, Value: []byte(it.Value)}
	}
	return recs
}

// encode leaves markup in values unescaped.
func encode(d document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func load(txn *badger.Txn, c store.Collection) (document, error) {
	it, err := txn.Get(documentKeys[c])
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}

	raw, err := it.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}

	var d document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", c, err)
	}
	return d, nil
}

// storedSize is the quota charge of a collection as currently committed.
func storedSize(txn *badger.Txn, c store.Collection) (int64, error) {
	it, err := txn.Get(documentKeys[c])
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(len(documentKeys[c])) + it.ValueSize(), nil
}
