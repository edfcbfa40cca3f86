// ABOUTME: Import/export gateway moving the whole diary in and out as one document.
// ABOUTME: Imports are validated up front and committed in a single atomic batch.

package transfer

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/repository"
	"github.com/harper/diary/internal/store"
	"go.uber.org/zap"
)

// Gateway exports and imports through the repositories and commits imports
// straight to the backend.
type Gateway struct {
	backend  store.Backend
	entries  *repository.Entries
	settings *repository.Settings
	files    *repository.Attachments
	logger   *zap.Logger
}

func NewGateway(backend store.Backend, entries *repository.Entries, settings *repository.Settings, files *repository.Attachments, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		backend:  backend,
		entries:  entries,
		settings: settings,
		files:    files,
		logger:   logger.Named("transfer"),
	}
}

// RecordError describes one entry rejected by Import.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("entry %d (%s): %v", e.Index, e.ID, e.Err)
}

// ImportError lists every rejected entry. It matches ErrInvalidFormat.
type ImportError struct {
	Failures []RecordError
}

func (e *ImportError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%v: %d invalid entries: %s", ErrInvalidFormat, len(e.Failures), strings.Join(parts, "; "))
}

func (e *ImportError) Unwrap() error {
	return ErrInvalidFormat
}

// Report summarizes a committed import.
type Report struct {
	Entries     int
	Settings    int
	FilesAdded  int
	FilesReused int
}

// Export reads the whole data set. Entries are newest first.
func (g *Gateway) Export(ctx context.Context) (*Document, error) {
	entries, err := g.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := g.settings.All(ctx)
	if err != nil {
		return nil, err
	}
	files, err := g.files.List(ctx)
	if err != nil {
		return nil, err
	}

	return &Document{
		Entries:    entries,
		Settings:   settings,
		Files:      files,
		ExportDate: models.Now(),
		Version:    Version,
	}, nil
}

// Import replaces entries and settings with the document's and merges its
// files into the shared collection. Nothing is written unless every entry
// is valid and the whole batch commits.
func (g *Gateway) Import(ctx context.Context, doc *Document) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", ErrInvalidFormat)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	existing, err := g.files.List(ctx)
	if err != nil {
		return nil, err
	}
	st := repository.NewStaging(existing)

	// Payloads shipped at document level, keyed by their exported id.
	remap := make(map[string]string)
	for _, f := range doc.Files {
		if !f.Inline() {
			g.logger.Warn("skipping shared file without payload", zap.String("name", f.Name))
			continue
		}
		stored := st.Add(normalize(f))
		if f.ID != "" {
			remap[f.ID] = stored.ID
		}
	}

	defaultTheme := models.DefaultTheme
	if name, ok := doc.Settings[repository.ThemeKey].(string); ok {
		if t, ok := models.ParseTheme(name); ok {
			defaultTheme = t
		}
	}

	batch := store.NewBatch().Clear(store.Entries).Clear(store.Settings)
	for _, src := range doc.Entries {
		e := src.Clone()
		e.Date = models.NormalizeTime(e.Date)
		if e.Theme == "" {
			e.Theme = defaultTheme
		}
		for i := range e.Attachments {
			a := normalize(e.Attachments[i])
			if a.Inline() {
				a = st.Add(a).Ref()
			} else if id, ok := remap[a.ID]; ok {
				a.ID = id
			}
			e.Attachments[i] = a
		}

		rec, err := repository.EncodeEntry(e)
		if err != nil {
			return nil, err
		}
		batch.Put(store.Entries, rec)
	}

	if _, err := repository.SettingsBatch(batch, doc.Settings); err != nil {
		return nil, err
	}

	for i := range st.Added {
		rec, err := repository.EncodeAttachment(&st.Added[i])
		if err != nil {
			return nil, err
		}
		batch.Put(store.Files, rec)
	}

	if err := g.backend.Apply(ctx, batch); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	report := &Report{
		Entries:     len(doc.Entries),
		Settings:    len(doc.Settings),
		FilesAdded:  len(st.Added),
		FilesReused: st.Reused,
	}
	g.logger.Info("import committed",
		zap.Int("entries", report.Entries),
		zap.Int("settings", report.Settings),
		zap.Int("files_added", report.FilesAdded),
		zap.Int("files_reused", report.FilesReused),
	)
	return report, nil
}

// Clear wipes every collection in one batch.
func (g *Gateway) Clear(ctx context.Context) error {
	b := store.NewBatch()
	for _, c := range store.Collections() {
		b.Clear(c)
	}
	return g.backend.Apply(ctx, b)
}

func validate(doc *Document) error {
	var failures []RecordError
	seen := make(map[string]int)

	for i, e := range doc.Entries {
		if err, ok := doc.invalid[i]; ok {
			failures = append(failures, RecordError{Index: i, Err: err})
			continue
		}
		if e == nil {
			failures = append(failures, RecordError{Index: i, Err: fmt.Errorf("null entry")})
			continue
		}

		fail := func(err error) {
			failures = append(failures, RecordError{Index: i, ID: e.ID, Err: err})
		}

		if strings.TrimSpace(e.ID) == "" {
			fail(fmt.Errorf("missing id"))
			continue
		}
		if first, dup := seen[e.ID]; dup {
			fail(fmt.Errorf("duplicate id, first seen at entry %d", first))
			continue
		}
		seen[e.ID] = i

		if err := e.Validate(); err != nil {
			fail(err)
			continue
		}
		if e.Date.IsZero() {
			fail(fmt.Errorf("missing date"))
		}
	}

	if len(failures) > 0 {
		return &ImportError{Failures: failures}
	}
	return nil
}

// normalize fills in what legacy attachments leave out. Older exports put
// the MIME type in the type field.
func normalize(a models.Attachment) models.Attachment {
	switch a.Type {
	case models.KindImage, models.KindVideo, models.KindFile:
	default:
		if a.MimeType == "" && strings.Contains(string(a.Type), "/") {
			a.MimeType = string(a.Type)
		}
		a.Type = ""
	}

	if a.Inline() && (a.MimeType == "" || a.Size == 0) {
		if mt, data, err := models.DecodeDataURL(a.URL); err == nil {
			if a.MimeType == "" {
				a.MimeType = mt
			}
			if a.Size == 0 {
				a.Size = int64(len(data))
			}
		}
	}
	if a.Type == "" {
		a.Type = models.Classify(a.MimeType)
	}
	return a
}
