// ABOUTME: Opens the storage engine chosen by config and wires the repositories.
// ABOUTME: Falls back from SQLite to the badger blob engine and reports Degraded.

package diary

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/diary/internal/config"
	"github.com/harper/diary/internal/db"
	"github.com/harper/diary/internal/kv"
	"github.com/harper/diary/internal/repository"
	"github.com/harper/diary/internal/store"
	"github.com/harper/diary/internal/transfer"
	"go.uber.org/zap"
)

// Options selects and sizes the storage engine.
type Options struct {
	Engine       string
	DBPath       string
	BlobDir      string
	BlobQuota    int64
	MaxPageCount int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Engine:       cfg.Engine,
		DBPath:       cfg.DBPath(),
		BlobDir:      cfg.BlobDir(),
		BlobQuota:    cfg.BlobQuotaBytes,
		MaxPageCount: cfg.MaxPageCount,
	}
}

// OpenBackend opens the configured engine. In auto mode a SQLite failure is
// logged and the blob engine is opened instead with status Degraded. When
// nothing opens the error wraps store.ErrBackendUnavailable.
func OpenBackend(opts Options, logger *zap.Logger) (store.Backend, store.Status, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Engine {
	case config.EngineSQLite:
		b, err := openSQLite(opts)
		if err != nil {
			return nil, store.Ready, unavailable(err)
		}
		return b, store.Ready, nil

	case config.EngineBlob:
		b, err := openBlob(opts)
		if err != nil {
			return nil, store.Ready, unavailable(err)
		}
		return b, store.Ready, nil

	case config.EngineMemory:
		b, err := kv.OpenInMemory(kv.WithQuota(opts.BlobQuota))
		if err != nil {
			return nil, store.Ready, unavailable(err)
		}
		return b, store.Ready, nil

	case config.EngineAuto, "":
		b, err := openSQLite(opts)
		if err == nil {
			return b, store.Ready, nil
		}
		logger.Warn("structured engine unavailable, falling back to blob storage",
			zap.String("path", opts.DBPath), zap.Error(err))

		fb, fbErr := openBlob(opts)
		if fbErr != nil {
			return nil, store.Ready, unavailable(errors.Join(err, fbErr))
		}
		return fb, store.Degraded, nil

	default:
		return nil, store.Ready, fmt.Errorf("%w: unknown engine %q", config.ErrInvalidConfig, opts.Engine)
	}
}

func openSQLite(opts Options) (store.Backend, error) {
	return db.Open(opts.DBPath, db.WithMaxPageCount(opts.MaxPageCount))
}

func openBlob(opts Options) (store.Backend, error) {
	return kv.Open(opts.BlobDir, kv.WithQuota(opts.BlobQuota))
}

func unavailable(err error) error {
	if errors.Is(err, store.ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrBackendUnavailable, err)
}

// App bundles the open backend with everything built on it.
type App struct {
	Backend  store.Backend
	Status   store.Status
	Entries  *repository.Entries
	Settings *repository.Settings
	Files    *repository.Attachments
	Transfer *transfer.Gateway
	Logger   *zap.Logger
}

// New wires repositories and the gateway around an open backend.
func New(backend store.Backend, status store.Status, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := repository.NewSettings(backend, logger)
	files := repository.NewAttachments(backend, logger)
	entries := repository.NewEntries(backend, settings, files, logger)
	return &App{
		Backend:  backend,
		Status:   status,
		Entries:  entries,
		Settings: settings,
		Files:    files,
		Transfer: transfer.NewGateway(backend, entries, settings, files, logger),
		Logger:   logger,
	}
}

// Open selects the engine from opts and wires the app.
func Open(opts Options, logger *zap.Logger) (*App, error) {
	backend, status, err := OpenBackend(opts, logger)
	if err != nil {
		return nil, err
	}
	return New(backend, status, logger), nil
}

func (a *App) Close() error {
	return a.Backend.Close()
}

// Stats describes the open store for status output.
type Stats struct {
	Engine   string
	Status   store.Status
	Location string
	Counts   map[store.Collection]int
	// Used and Quota are set only for the blob engine.
	Used  int64
	Quota int64
}

func (a *App) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		Engine: a.Backend.Engine(),
		Status: a.Status,
		Counts: make(map[store.Collection]int),
	}
	if d, ok := a.Backend.(*db.DB); ok {
		if err := d.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping %s: %w", d.Path(), err)
		}
	}
	for _, c := range store.Collections() {
		n, err := a.Backend.Count(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		st.Counts[c] = n
	}

	switch b := a.Backend.(type) {
	case *db.DB:
		st.Location = b.Path()
	case *kv.Store:
		st.Location = b.Dir()
		if st.Location == "" {
			st.Location = "(memory)"
		}
		used, err := b.Usage(ctx)
		if err != nil {
			return nil, err
		}
		st.Used = used
		st.Quota = b.Quota()
	}
	return st, nil
}
