// ABOUTME: Entry repository with typed CRUD, listing and search over the entries collection.
// ABOUTME: Entry writes commit the entry and its new shared files in one batch.

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/store"
	"go.uber.org/zap"
)

// MinPrefixLen is the shortest id prefix GetByPrefix accepts.
const MinPrefixLen = 6

type Entries struct {
	backend  store.Backend
	settings *Settings
	files    *Attachments
	logger   *zap.Logger
}

func NewEntries(backend store.Backend, settings *Settings, files *Attachments, logger *zap.Logger) *Entries {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Entries{
		backend:  backend,
		settings: settings,
		files:    files,
		logger:   logger.Named("entries"),
	}
}

// Create stores a new entry, filling in id, date and theme when absent.
func (r *Entries) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	e := entry.Clone()
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	if e.ID == "" {
		e.ID = models.NewID()
	} else if _, err := r.backend.Get(ctx, store.Entries, e.ID); err == nil {
		return nil, fmt.Errorf("%w: entry %s", store.ErrDuplicateKey, e.ID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if e.Date.IsZero() {
		e.Date = models.Now()
	} else {
		e.Date = models.NormalizeTime(e.Date)
	}

	if e.Theme == "" {
		theme, err := r.settings.Theme(ctx)
		if err != nil {
			return nil, err
		}
		e.Theme = theme
	}

	if err := r.write(ctx, e, nil); err != nil {
		return nil, err
	}

	r.logger.Debug("created entry", zap.String("id", e.ID), zap.Int("attachments", len(e.Attachments)))
	return e, nil
}

// List returns every entry, newest first. Entries sharing a date keep the
// order they were first stored in.
func (r *Entries) List(ctx context.Context) ([]*models.Entry, error) {
	recs, err := r.backend.GetAll(ctx, store.Entries)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	entries := make([]*models.Entry, 0, len(recs))
	for _, rec := range recs {
		e, err := DecodeEntry(rec)
		if err != nil {
			r.logger.Warn("skipping unreadable entry", zap.String("id", rec.Key), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	SortByDate(entries)
	return entries, nil
}

// SortByDate orders entries newest first, stably.
func SortByDate(entries []*models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
}

func (r *Entries) ListByTheme(ctx context.Context, theme models.Theme) ([]*models.Entry, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*models.Entry
	for _, e := range all {
		if e.Theme == theme {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetByID returns store.ErrNotFound when no entry has the id.
func (r *Entries) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	rec, err := r.backend.Get(ctx, store.Entries, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("entry %s: %w", id, err)
		}
		return nil, err
	}
	return DecodeEntry(rec)
}

// GetByPrefix finds the single entry whose id starts with prefix.
func (r *Entries) GetByPrefix(ctx context.Context, prefix string) (*models.Entry, error) {
	if len(prefix) < MinPrefixLen {
		return nil, ErrPrefixTooShort
	}

	recs, err := r.backend.GetAll(ctx, store.Entries)
	if err != nil {
		return nil, err
	}

	var match *store.Record
	for i := range recs {
		if !strings.HasPrefix(recs[i].Key, prefix) {
			continue
		}
		if match != nil {
			return nil, ErrAmbiguousPrefix
		}
		match = &recs[i]
	}
	if match == nil {
		return nil, fmt.Errorf("entry %s: %w", prefix, store.ErrNotFound)
	}
	return DecodeEntry(*match)
}

// Find looks up an exact id first and falls back to a prefix match.
func (r *Entries) Find(ctx context.Context, idOrPrefix string) (*models.Entry, error) {
	e, err := r.GetByID(ctx, idOrPrefix)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return e, err
	}
	if len(idOrPrefix) < MinPrefixLen {
		return nil, err
	}
	return r.GetByPrefix(ctx, idOrPrefix)
}

// Update replaces a stored entry. The original date is kept and an empty
// theme keeps the stored one. A missing id returns store.ErrNotFound and
// writes nothing.
func (r *Entries) Update(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	existing, err := r.GetByID(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	e := entry.Clone()
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	e.Date = existing.Date
	if e.Theme == "" {
		e.Theme = existing.Theme
	}

	if err := r.write(ctx, e, existing.Attachments); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an entry. Deleting a missing id succeeds. Shared files
// stay in place.
func (r *Entries) Delete(ctx context.Context, id string) error {
	return r.backend.Delete(ctx, store.Entries, id)
}

// AddAttachments appends attachments in the given order. Concurrent calls
// on the same id are last-write-wins.
func (r *Entries) AddAttachments(ctx context.Context, id string, attachments []models.Attachment) (*models.Entry, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Attachments = append(e.Attachments, attachments...)
	return r.Update(ctx, e)
}

func (r *Entries) Count(ctx context.Context) (int, error) {
	return r.backend.Count(ctx, store.Entries)
}

// Search matches query case-insensitively against titles and the plain
// text of contents. Results keep list order; an empty query matches all.
func (r *Entries) Search(ctx context.Context, query string) ([]*models.Entry, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}

	var out []*models.Entry
	for _, e := range all {
		if Matches(e, q) {
			out = append(out, e)
		}
	}
	return out, nil
}

// write stores e together with any shared files its inline payloads need,
// in one batch. kept lists references already on the stored entry.
func (r *Entries) write(ctx context.Context, e *models.Entry, kept []models.Attachment) error {
	r.files.mu.Lock()
	defer r.files.mu.Unlock()

	batch := store.NewBatch()
	refs, err := r.files.link(ctx, batch, e.Attachments, kept)
	if err != nil {
		return err
	}
	e.Attachments = refs

	rec, err := EncodeEntry(e)
	if err != nil {
		return err
	}
	batch.Put(store.Entries, rec)

	if err := r.backend.Apply(ctx, batch); err != nil {
		return fmt.Errorf("save entry %s: %w", e.ID, err)
	}
	return nil
}
