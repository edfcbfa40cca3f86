// ABOUTME: store.Backend operations on the badger blob engine.
// ABOUTME: Each call is one badger transaction over whole collection documents.

package kv

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/harper/diary/internal/store"
)

func (s *Store) Put(ctx context.Context, c store.Collection, rec store.Record) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, []store.Collection{c}, func(docs map[store.Collection]document) error {
		docs[c] = docs[c].upsert(rec)
		return nil
	})
}

func (s *Store) Get(ctx context.Context, c store.Collection, key string) (store.Record, error) {
	d, err := s.read(ctx, c)
	if err != nil {
		return store.Record{}, err
	}
	i := d.index(key)
	if i < 0 {
		return store.Record{}, store.ErrNotFound
	}
	return store.Record{Key: d[i].Key, Value: []byte(d[i].Value)}, nil
}

func (s *Store) GetAll(ctx context.Context, c store.Collection) ([]store.Record, error) {
	d, err := s.read(ctx, c)
	if err != nil {
		return nil, err
	}
	return d.records(), nil
}

func (s *Store) Delete(ctx context.Context, c store.Collection, key string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, []store.Collection{c}, func(docs map[store.Collection]document) error {
		docs[c] = docs[c].remove(key)
		return nil
	})
}

func (s *Store) Clear(ctx context.Context, c store.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, []store.Collection{c}, func(docs map[store.Collection]document) error {
		docs[c] = nil
		return nil
	})
}

func (s *Store) Count(ctx context.Context, c store.Collection) (int, error) {
	d, err := s.read(ctx, c)
	if err != nil {
		return 0, err
	}
	return len(d), nil
}

func (s *Store) Apply(ctx context.Context, b *store.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}

	var touched []store.Collection
	seen := make(map[store.Collection]bool)
	for _, c := range b.Clears {
		if !seen[c] {
			seen[c] = true
			touched = append(touched, c)
		}
	}
	for _, w := range b.Writes {
		if !seen[w.Collection] {
			seen[w.Collection] = true
			touched = append(touched, w.Collection)
		}
	}

	return s.mutate(ctx, touched, func(docs map[store.Collection]document) error {
		for _, c := range b.Clears {
			docs[c] = nil
		}
		for _, w := range b.Writes {
			docs[w.Collection] = docs[w.Collection].upsert(w.Record)
		}
		return nil
	})
}

// Usage reports the bytes charged against the quota.
func (s *Store) Usage(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var total int64
	err := s.db.View(func(txn *badger.Txn) error {
		for _, c := range store.Collections() {
			n, err := storedSize(txn, c)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

func (s *Store) read(ctx context.Context, c store.Collection) (document, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var d document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		d, err = load(txn, c)
		return err
	})
	return d, err
}

// mutate loads the touched documents, lets fn edit them, checks the quota
// and writes them back in one transaction. Nothing is written on error.
func (s *Store) mutate(ctx context.Context, touched []store.Collection, fn func(map[store.Collection]document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		docs := make(map[store.Collection]document, len(touched))
		for _, c := range touched {
			d, err := load(txn, c)
			if err != nil {
				return err
			}
			docs[c] = d
		}

		if err := fn(docs); err != nil {
			return err
		}

		encoded := make(map[store.Collection][]byte, len(docs))
		var total int64
		for c, d := range docs {
			if len(d) == 0 {
				continue
			}
			data, err := encode(d)
			if err != nil {
				return fmt.Errorf("encode %s document: %w", c, err)
			}
			encoded[c] = data
			total += int64(len(documentKeys[c]) + len(data))
		}
		for _, c := range store.Collections() {
			if _, ok := docs[c]; ok {
				continue
			}
			n, err := storedSize(txn, c)
			if err != nil {
				return err
			}
			total += n
		}

		if s.quota > 0 && total > s.quota {
			return fmt.Errorf("%w: %d bytes exceeds quota of %d", store.ErrStorageFull, total, s.quota)
		}

		for c := range docs {
			data, ok := encoded[c]
			if !ok {
				if err := txn.Delete(documentKeys[c]); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(documentKeys[c], data); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %w", store.ErrStorageFull, err)
	}
	return err
}
