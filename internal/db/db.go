// ABOUTME: SQLite structured engine for the diary store.
// ABOUTME: Handles XDG paths, schema provisioning and connection setup.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/diary/internal/store"
	_ "modernc.org/sqlite"
)

// EngineName is reported by DB.Engine.
const EngineName = "sqlite"

// Each collection is a (key, json value) table. Rowids give first-insertion
// order and survive upserts.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS entries_date ON entries (json_extract(value, '$.date'));
CREATE INDEX IF NOT EXISTS entries_theme ON entries (json_extract(value, '$.theme'));
CREATE INDEX IF NOT EXISTS files_name_size ON files (json_extract(value, '$.name'), json_extract(value, '$.size'));
`

// DB implements store.Backend on a single SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

var _ store.Backend = (*DB)(nil)

type options struct {
	maxPageCount int
}

// Option configures Open.
type Option func(*options)

// WithMaxPageCount caps the database file at n pages. Zero leaves it
// unlimited. Writes past the cap fail with store.ErrStorageFull.
func WithMaxPageCount(n int) Option {
	return func(o *options) {
		o.maxPageCount = n
	}
}

func Open(path string, opts ...Option) (*DB, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection and writes must be serialized.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("run migrations: %w", mapError(err))
	}

	if o.maxPageCount > 0 {
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA max_page_count = %d", o.maxPageCount)); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set max page count: %w", err)
		}
	}

	return &DB{conn: conn, path: path}, nil
}

func (d *DB) Engine() string {
	return EngineName
}

// Path returns the file the database was opened at.
func (d *DB) Path() string {
	return d.path
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping checks the connection is still usable.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

func DefaultPath() string {
	return filepath.Join(DataDir(), "diary.db")
}

// DataDir returns $XDG_DATA_HOME/diary, falling back to ~/.local/share/diary.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "diary")
}
