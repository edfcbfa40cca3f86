// ABOUTME: Sentinel errors shared by every storage engine.
// ABOUTME: Engines wrap driver errors so callers match with errors.Is.

package store

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey reports a unique constraint violation in the
	// structured engine.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStorageFull means the write was rejected for lack of space and
	// nothing was saved.
	ErrStorageFull        = errors.New("storage full")
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	ErrUnknownCollection  = errors.New("unknown collection")
)
