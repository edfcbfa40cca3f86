// ABOUTME: Shared attachment store holding data-URL payloads in the files collection.
// ABOUTME: Deduplicates by (name, size) and resolves entry references to payloads.

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/store"
	"go.uber.org/zap"
)

type Attachments struct {
	backend store.Backend
	logger  *zap.Logger

	// guards the check-then-write in SaveShared and entry writes
	mu sync.Mutex
}

func NewAttachments(backend store.Backend, logger *zap.Logger) *Attachments {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Attachments{backend: backend, logger: logger.Named("attachments")}
}

// SaveShared stores a payload-bearing attachment unless one with the same
// name and size exists. created is false when the stored match is returned.
func (s *Attachments) SaveShared(ctx context.Context, a *models.Attachment) (*models.Attachment, bool, error) {
	if !a.Inline() {
		return nil, false, fmt.Errorf("%w: %s", ErrMissingPayload, a.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.List(ctx)
	if err != nil {
		return nil, false, err
	}
	st := NewStaging(existing)
	saved := st.Add(*a)
	if st.Reused > 0 {
		return &saved, false, nil
	}

	rec, err := EncodeAttachment(&saved)
	if err != nil {
		return nil, false, err
	}
	if err := s.backend.Put(ctx, store.Files, rec); err != nil {
		return nil, false, fmt.Errorf("save attachment %s: %w", saved.Name, err)
	}
	return &saved, true, nil
}

// link turns an entry's attachments into references. Inline payloads are
// staged into b as new shared files unless a (name, size) match exists.
// Any other attachment must already be on the stored entry (kept) or point
// at a shared file by id or by (name, size). The caller holds s.mu until b
// is applied.
func (s *Attachments) link(ctx context.Context, b *store.Batch, attachments, kept []models.Attachment) ([]models.Attachment, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	st := NewStaging(existing)

	refs := make([]models.Attachment, 0, len(attachments))
	for i := range attachments {
		a := attachments[i]
		switch {
		case a.Inline():
			refs = append(refs, st.Add(a).Ref())
		case containsRef(kept, &a):
			refs = append(refs, a)
		default:
			j := st.indexOf(a.ID)
			if j < 0 {
				j = FindSameFile(st.Known, &a)
			}
			if j < 0 {
				return nil, fmt.Errorf("%w: %w: %s", ErrInvalidEntry, ErrMissingPayload, a.Name)
			}
			refs = append(refs, st.Known[j].Ref())
		}
	}

	for i := range st.Added {
		rec, err := EncodeAttachment(&st.Added[i])
		if err != nil {
			return nil, err
		}
		b.Put(store.Files, rec)
	}
	return refs, nil
}

func (s *Attachments) Get(ctx context.Context, id string) (*models.Attachment, error) {
	rec, err := s.backend.Get(ctx, store.Files, id)
	if err != nil {
		return nil, err
	}
	return DecodeAttachment(rec)
}

// List returns shared files in insertion order.
func (s *Attachments) List(ctx context.Context) ([]models.Attachment, error) {
	recs, err := s.backend.GetAll(ctx, store.Files)
	if err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}

	out := make([]models.Attachment, 0, len(recs))
	for _, rec := range recs {
		a, err := DecodeAttachment(rec)
		if err != nil {
			s.logger.Warn("skipping unreadable attachment", zap.String("id", rec.Key), zap.Error(err))
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *Attachments) RemoveShared(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, store.Files, id)
}

func (s *Attachments) ClearShared(ctx context.Context) error {
	return s.backend.Clear(ctx, store.Files)
}

// Resolve returns the payload-bearing record behind an entry's reference.
// Inline attachments resolve to themselves. A reference whose id is gone
// falls back to a (name, size) match.
func (s *Attachments) Resolve(ctx context.Context, ref models.Attachment) (*models.Attachment, error) {
	if ref.Inline() {
		return &ref, nil
	}

	if ref.ID != "" {
		a, err := s.Get(ctx, ref.ID)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := FindSameFile(all, &ref); i >= 0 {
		return &all[i], nil
	}
	return nil, fmt.Errorf("attachment %s (%s): %w", ref.ID, ref.Name, store.ErrNotFound)
}

// FindSameFile returns the index of the first attachment sharing a's
// (name, size) identity, or -1.
func FindSameFile(list []models.Attachment, a *models.Attachment) int {
	for i := range list {
		if list[i].SameFile(a) {
			return i
		}
	}
	return -1
}

func containsRef(list []models.Attachment, a *models.Attachment) bool {
	for i := range list {
		if list[i].ID == a.ID && list[i].SameFile(a) {
			return true
		}
	}
	return false
}

// Staging dedups files against a known set without writing anything.
// Added holds the records a caller still has to store.
type Staging struct {
	Known  []models.Attachment
	Added  []models.Attachment
	Reused int
}

func NewStaging(existing []models.Attachment) *Staging {
	known := make([]models.Attachment, len(existing))
	copy(known, existing)
	return &Staging{Known: known}
}

// Add returns the known file sharing a's (name, size), or stages a under a
// fresh id when its own is empty or taken.
func (s *Staging) Add(a models.Attachment) models.Attachment {
	if i := FindSameFile(s.Known, &a); i >= 0 {
		s.Reused++
		return s.Known[i]
	}

	if a.ID == "" || s.indexOf(a.ID) >= 0 {
		a.ID = models.NewID()
	}
	if a.Type == "" {
		a.Type = models.Classify(a.MimeType)
	}
	s.Known = append(s.Known, a)
	s.Added = append(s.Added, a)
	return a
}

func (s *Staging) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Known {
		if s.Known[i].ID == id {
			return i
		}
	}
	return -1
}
