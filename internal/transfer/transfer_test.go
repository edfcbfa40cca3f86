// ABOUTME: Tests for export, parse and import of whole-diary documents.
// ABOUTME: Covers round trips, legacy formats and all-or-nothing failure modes.

package transfer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/diary/internal/db"
	"github.com/harper/diary/internal/kv"
	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/repository"
	"github.com/harper/diary/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	backend  store.Backend
	entries  *repository.Entries
	settings *repository.Settings
	files    *repository.Attachments
	gateway  *Gateway
}

func newFixture(t *testing.T, backend store.Backend) *fixture {
	t.Cleanup(func() { _ = backend.Close() })
	logger := zaptest.NewLogger(t)
	settings := repository.NewSettings(backend, logger)
	files := repository.NewAttachments(backend, logger)
	entries := repository.NewEntries(backend, settings, files, logger)
	return &fixture{
		backend:  backend,
		entries:  entries,
		settings: settings,
		files:    files,
		gateway:  NewGateway(backend, entries, settings, files, logger),
	}
}

func sqliteFixture(t *testing.T) *fixture {
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	return newFixture(t, d)
}

func blobFixture(t *testing.T, opts ...kv.Option) *fixture {
	s, err := kv.OpenInMemory(opts...)
	require.NoError(t, err)
	return newFixture(t, s)
}

func eachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, sqliteFixture(t)) })
	t.Run("blob", func(t *testing.T) { fn(t, blobFixture(t)) })
}

func seed(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.settings.SetTheme(ctx, "snow")
	require.NoError(t, err)
	require.NoError(t, f.settings.Set(ctx, "fontSize", float64(16)))

	photo := models.NewAttachment("beach.png", "image/png", []byte("\x89PNG fake"))
	_, err = f.entries.Create(ctx, &models.Entry{
		Title:       "Summer",
		Content:     "<p>Sea &amp; sand</p>",
		Theme:       models.ThemeSunny,
		Date:        time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC),
		Attachments: []models.Attachment{*photo},
	})
	require.NoError(t, err)
	_, err = f.entries.Create(ctx, &models.Entry{
		Title:   "Winter",
		Content: "Cold",
		Date:    time.Date(2024, 1, 5, 18, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestExportShape(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		seed(t, f)
		doc, err := f.gateway.Export(context.Background())
		require.NoError(t, err)

		assert.Equal(t, Version, doc.Version)
		assert.WithinDuration(t, time.Now(), doc.ExportDate, time.Minute)
		require.Len(t, doc.Entries, 2)
		assert.Equal(t, "Summer", doc.Entries[0].Title)
		assert.Equal(t, "Winter", doc.Entries[1].Title)
		assert.Equal(t, models.ThemeSnow, doc.Entries[1].Theme)
		assert.Equal(t, "snow", doc.Settings["theme"])
		require.Len(t, doc.Files, 1)
		assert.True(t, doc.Files[0].Inline())
		assert.Equal(t, doc.Files[0].ID, doc.Entries[0].Attachments[0].ID)
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := sqliteFixture(t)
	seed(t, src)

	doc, err := src.gateway.Export(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)

	dst := blobFixture(t)
	report, err := dst.gateway.Import(ctx, parsed)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Entries)
	assert.Equal(t, 2, report.Settings)
	assert.Equal(t, 1, report.FilesAdded)

	want, err := src.entries.List(ctx)
	require.NoError(t, err)
	got, err := dst.entries.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Content, got[i].Content)
		assert.Equal(t, want[i].Theme, got[i].Theme)
		assert.True(t, want[i].Date.Equal(got[i].Date))
		assert.Equal(t, want[i].Attachments, got[i].Attachments)
	}

	settings, err := dst.settings.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Settings, settings)

	resolved, err := dst.files.Resolve(ctx, got[0].Attachments[0])
	require.NoError(t, err)
	data, err := resolved.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG fake"), data)
}

func TestReimportIntoSameStoreReusesFiles(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		seed(t, f)
		doc, err := f.gateway.Export(ctx)
		require.NoError(t, err)

		report, err := f.gateway.Import(ctx, doc)
		require.NoError(t, err)
		assert.Zero(t, report.FilesAdded)
		assert.Equal(t, 1, report.FilesReused)

		files, err := f.files.List(ctx)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestImportReplacesEntries(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, err := f.entries.Create(ctx, &models.Entry{ID: "2", Title: "old", Content: "old"})
		require.NoError(t, err)
		require.NoError(t, f.settings.Set(ctx, "stale", true))

		doc, err := Parse([]byte(`{"entries":[{"id":"1","title":"new","content":"new","theme":"rain","date":"2024-05-01T12:00:00.000Z","attachments":[]}],"exportDate":"2024-05-02T00:00:00.000Z","version":2}`))
		require.NoError(t, err)

		_, err = f.gateway.Import(ctx, doc)
		require.NoError(t, err)

		list, err := f.entries.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "1", list[0].ID)

		_, err = f.entries.GetByID(ctx, "2")
		assert.ErrorIs(t, err, store.ErrNotFound)

		settings, err := f.settings.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, settings)
	})
}

func TestImportLegacyArray(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		legacy := `[
		  {"id": 1717171717171, "title": "Old one", "content": "<b>hi</b>", "theme": "", "date": "2024-05-31T16:08:37.171Z",
		   "files": [{"type": "image", "name": "a.png", "url": "data:image/png;base64,AAEC", "size": 3}]},
		  {"id": "1717171717999", "title": "Other", "content": "text", "theme": "snow", "date": "2024-06-01T08:00:00Z",
		   "attachments": [{"type": "application/pdf", "name": "doc.pdf", "url": "data:application/pdf;base64,JVBERg=="}]}
		]`

		doc, err := Parse([]byte(legacy))
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Version)

		report, err := f.gateway.Import(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, 2, report.FilesAdded)

		old, err := f.entries.GetByID(ctx, "1717171717171")
		require.NoError(t, err)
		assert.Equal(t, models.DefaultTheme, old.Theme)
		require.Len(t, old.Attachments, 1)
		assert.False(t, old.Attachments[0].Inline())
		assert.Equal(t, models.KindImage, old.Attachments[0].Type)

		other, err := f.entries.GetByID(ctx, "1717171717999")
		require.NoError(t, err)
		require.Len(t, other.Attachments, 1)
		pdf := other.Attachments[0]
		assert.Equal(t, models.KindFile, pdf.Type)
		assert.Equal(t, "application/pdf", pdf.MimeType)
		assert.Equal(t, int64(4), pdf.Size)

		resolved, err := f.files.Resolve(ctx, pdf)
		require.NoError(t, err)
		data, err := resolved.Data()
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF"), data)
	})
}

func TestImportDedupsWithinDocument(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		same := models.NewAttachment("same.txt", "text/plain", []byte("same"))
		doc := &Document{Entries: []*models.Entry{
			{ID: "a", Title: "a", Content: "a", Date: time.Now(), Attachments: []models.Attachment{*same}},
			{ID: "b", Title: "b", Content: "b", Date: time.Now(), Attachments: []models.Attachment{*same}},
		}}

		report, err := f.gateway.Import(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, 1, report.FilesAdded)
		assert.Equal(t, 1, report.FilesReused)

		a, err := f.entries.GetByID(ctx, "a")
		require.NoError(t, err)
		b, err := f.entries.GetByID(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, a.Attachments[0].ID, b.Attachments[0].ID)
	})
}

func TestImportRemapsCollidingFileIdentity(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		stored, _, err := f.files.SaveShared(ctx, models.NewAttachment("cat.jpg", "image/jpeg", []byte("meow")))
		require.NoError(t, err)

		incoming := models.NewAttachment("cat.jpg", "image/jpeg", []byte("purr"))
		doc := &Document{
			Entries: []*models.Entry{{
				ID: "e", Title: "t", Content: "c", Date: time.Now(),
				Attachments: []models.Attachment{incoming.Ref()},
			}},
			Files: []models.Attachment{*incoming},
		}

		_, err = f.gateway.Import(ctx, doc)
		require.NoError(t, err)

		e, err := f.entries.GetByID(ctx, "e")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, e.Attachments[0].ID)

		files, err := f.files.List(ctx)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestImportKeepsOrphanFiles(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, _, err := f.files.SaveShared(ctx, models.NewAttachment("orphan.bin", "", []byte{9, 9, 9}))
		require.NoError(t, err)

		_, err = f.gateway.Import(ctx, &Document{Entries: []*models.Entry{}})
		require.NoError(t, err)

		files, err := f.files.List(ctx)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestParseInvalidFormat(t *testing.T) {
	inputs := []string{
		``,
		`not json`,
		`"just a string"`,
		`42`,
		`{}`,
		`{"entries": null}`,
		`{"entries": {"id": "1"}}`,
		`{"entries": "nope"}`,
		`[1, 2`,
	}
	for _, in := range inputs {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", in)
	}
}

func TestImportInvalidRecordsLeaveStoreUntouched(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		seed(t, f)
		before, err := f.gateway.Export(ctx)
		require.NoError(t, err)

		doc, err := Parse([]byte(`{"entries":[
			{"id":"ok","title":"fine","content":"fine","date":"2024-01-01T00:00:00Z"},
			{"id":"","title":"no id","content":"x","date":"2024-01-01T00:00:00Z"},
			{"id":"ok","title":"dup","content":"x","date":"2024-01-01T00:00:00Z"},
			{"id":"t","title":"","content":"x","date":"2024-01-01T00:00:00Z"},
			{"id":"d","title":"bad date","content":"x","date":"last tuesday"},
			{"id":"th","title":"x","content":"x","theme":"lava","date":"2024-01-01T00:00:00Z"},
			{"id":"nd","title":"x","content":"x"},
			{"id":{},"title":"x","content":"x","date":"2024-01-01T00:00:00Z"}
		]}`))
		require.NoError(t, err)

		_, err = f.gateway.Import(ctx, doc)
		require.ErrorIs(t, err, ErrInvalidFormat)

		var ierr *ImportError
		require.ErrorAs(t, err, &ierr)
		var indexes []int
		for _, fail := range ierr.Failures {
			indexes = append(indexes, fail.Index)
		}
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, indexes)
		assert.Equal(t, "ok", ierr.Failures[1].ID)
		assert.Contains(t, err.Error(), "duplicate id")

		after, err := f.gateway.Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.Entries, after.Entries)
		assert.Equal(t, before.Settings, after.Settings)
		assert.Equal(t, before.Files, after.Files)
	})
}

func TestImportStorageFullLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	f := blobFixture(t, kv.WithQuota(48<<10))
	seed(t, f)
	before, err := f.gateway.Export(ctx)
	require.NoError(t, err)

	big := models.NewAttachment("big.bin", "application/octet-stream", bytes.Repeat([]byte{7}, 64<<10))
	doc := &Document{Entries: []*models.Entry{{
		ID: "huge", Title: "huge", Content: strings.Repeat("words ", 10), Date: time.Now(),
		Attachments: []models.Attachment{*big},
	}}}

	_, err = f.gateway.Import(ctx, doc)
	require.ErrorIs(t, err, store.ErrStorageFull)

	after, err := f.gateway.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Entries, after.Entries)
	assert.Equal(t, before.Settings, after.Settings)
	assert.Equal(t, before.Files, after.Files)
}

func TestClearWipesEverything(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		seed(t, f)
		require.NoError(t, f.gateway.Clear(ctx))

		for _, c := range store.Collections() {
			n, err := f.backend.Count(ctx, c)
			require.NoError(t, err)
			assert.Zero(t, n, "collection %s", c)
		}
	})
}

func TestExportMarkdown(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		seed(t, f)
		dir := t.TempDir()

		n, err := f.gateway.ExportMarkdown(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		summer, err := os.ReadFile(filepath.Join(dir, "2024-06-20-Summer.md"))
		require.NoError(t, err)
		text := string(summer)
		assert.True(t, strings.HasPrefix(text, "---\n"))
		assert.Contains(t, text, "title: Summer")
		assert.Contains(t, text, "theme: sunny")
		assert.Contains(t, text, "- beach.png")
		assert.Contains(t, text, "<p>Sea &amp; sand</p>")

		list, err := f.entries.List(ctx)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, "attachments", list[0].ID[:8], "beach.png"))
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG fake"), data)

		_, err = os.Stat(filepath.Join(dir, "2024-01-05-Winter.md"))
		assert.NoError(t, err)
	})
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "untitled", SanitizeFilename("  "))
	assert.Equal(t, "untitled", SanitizeFilename(".."))
	assert.Len(t, SanitizeFilename(strings.Repeat("x", 300)), 100)
}
