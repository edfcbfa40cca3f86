// ABOUTME: Storage contract shared by the SQLite and badger engines.
// ABOUTME: Defines collections, records, the Backend interface and status.

// Package store defines the persistence contract shared by the diary's
// storage engines: a structured SQLite engine (internal/db) and a
// single-document blob engine (internal/kv).
//
// Every engine stores opaque JSON records keyed by string within a fixed set
// of collections, upserts on Put, returns GetAll results in first-insertion
// order and applies a Batch atomically.
package store

import (
	"context"
	"fmt"
)

// Collection names a logical table.
type Collection string

const (
	Entries  Collection = "entries"
	Settings Collection = "settings"
	Files    Collection = "files"
)

var collections = []Collection{Entries, Settings, Files}

// Collections lists every collection an engine provisions.
func Collections() []Collection {
	out := make([]Collection, len(collections))
	copy(out, collections)
	return out
}

// Validate returns ErrUnknownCollection for names outside the fixed set.
func (c Collection) Validate() error {
	for _, known := range collections {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
}

// Record is one stored document. Value must be valid JSON.
type Record struct {
	Key   string
	Value []byte
}

// Backend is the CRUD surface the repositories are built on.
type Backend interface {
	// Put inserts or replaces the record with the same key.
	Put(ctx context.Context, c Collection, rec Record) error
	// Get returns ErrNotFound when no record has the key.
	Get(ctx context.Context, c Collection, key string) (Record, error)
	// GetAll returns every record in first-insertion order.
	GetAll(ctx context.Context, c Collection) ([]Record, error)
	// Delete removes the record; deleting a missing key is not an error.
	Delete(ctx context.Context, c Collection, key string) error
	Clear(ctx context.Context, c Collection) error
	Count(ctx context.Context, c Collection) (int, error)
	// Apply commits the batch as one unit or not at all.
	Apply(ctx context.Context, b *Batch) error
	// Engine names the implementation, e.g. "sqlite" or "blob".
	Engine() string
	Close() error
}

// Status reports how the backend was selected at startup.
type Status int

const (
	// Ready means the requested engine opened.
	Ready Status = iota
	// Degraded means the structured engine failed and the blob engine
	// is serving instead.
	Degraded
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
