// ABOUTME: Badger-backed blob engine storing each collection as one JSON document.
// ABOUTME: Mirrors a browser key/value store, including its per-origin quota.

package kv

import (
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/harper/diary/internal/store"
)

const (
	// EngineName is reported by Store.Engine.
	EngineName = "blob"

	// DefaultQuota matches the usual 5 MiB browser storage allowance.
	DefaultQuota int64 = 5 << 20

	// In-memory badger keeps values inline only below 1 MiB, so the
	// in-memory store never lets the total reach that.
	inMemoryQuota int64 = 1<<20 - 1<<10
)

// Document keys, one per collection.
var documentKeys = map[store.Collection][]byte{
	store.Entries:  []byte("diaryEntries"),
	store.Settings: []byte("diarySettings"),
	store.Files:    []byte("diaryFiles"),
}

// Store implements store.Backend on badger. Every mutation rewrites the
// whole affected document inside a single badger transaction.
type Store struct {
	db    *badger.DB
	dir   string
	quota int64

	// serializes read-modify-write cycles
	mu sync.Mutex
}

var _ store.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithQuota caps the summed size of all documents. Zero or negative
// disables the cap.
func WithQuota(n int64) Option {
	return func(s *Store) {
		s.quota = n
	}
}

// Open opens (or creates) a badger database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("open blob store: empty directory")
	}
	return open(badger.DefaultOptions(dir).WithLogger(nil), dir, opts)
}

// OpenInMemory opens a badger database that lives only in memory. Its
// quota is capped just under 1 MiB.
func OpenInMemory(opts ...Option) (*Store, error) {
	s, err := open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), "", opts)
	if err != nil {
		return nil, err
	}
	if s.quota <= 0 || s.quota > inMemoryQuota {
		s.quota = inMemoryQuota
	}
	return s, nil
}

func open(bopts badger.Options, dir string, opts []Option) (*Store, error) {
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	s := &Store{db: db, dir: dir, quota: DefaultQuota}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Engine() string {
	return EngineName
}

// Dir returns the on-disk directory, or "" for an in-memory store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Quota() int64 {
	return s.quota
}

func (s *Store) Close() error {
	return s.db.Close()
}
