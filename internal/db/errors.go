// ABOUTME: Maps SQLite result codes onto the store's sentinel errors.
// ABOUTME: Callers match with errors.Is; the driver error stays wrapped.

package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/harper/diary/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return err
	}

	// Extended codes carry the primary code in the low byte.
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_FULL:
		return fmt.Errorf("%w: %w", store.ErrStorageFull, err)
	case sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%w: %w", store.ErrDuplicateKey, err)
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_CORRUPT:
		return fmt.Errorf("%w: %w", store.ErrBackendUnavailable, err)
	default:
		return err
	}
}
