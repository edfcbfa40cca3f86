// ABOUTME: Settings repository: an open key/value map stored one record per key.
// ABOUTME: Also owns the current UI theme used as the default for new entries.

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/store"
	"go.uber.org/zap"
)

// ThemeKey holds the current UI theme.
const ThemeKey = "theme"

type Settings struct {
	backend store.Backend
	logger  *zap.Logger
}

func NewSettings(backend store.Backend, logger *zap.Logger) *Settings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settings{backend: backend, logger: logger.Named("settings")}
}

// All returns every setting. Unreadable records are skipped.
func (s *Settings) All(ctx context.Context) (map[string]any, error) {
	recs, err := s.backend.GetAll(ctx, store.Settings)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	out := make(map[string]any, len(recs))
	for _, rec := range recs {
		key, value, err := decodeSetting(rec)
		if err != nil {
			s.logger.Warn("skipping unreadable setting", zap.String("key", rec.Key), zap.Error(err))
			continue
		}
		out[key] = value
	}
	return out, nil
}

// Get returns store.ErrNotFound for unknown keys.
func (s *Settings) Get(ctx context.Context, key string) (any, error) {
	rec, err := s.backend.Get(ctx, store.Settings, key)
	if err != nil {
		return nil, err
	}
	_, value, err := decodeSetting(rec)
	return value, err
}

func (s *Settings) Set(ctx context.Context, key string, value any) error {
	rec, err := EncodeSetting(key, value)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, store.Settings, rec)
}

// Save writes every key in one batch. Keys not in values are left alone.
func (s *Settings) Save(ctx context.Context, values map[string]any) error {
	batch, err := SettingsBatch(store.NewBatch(), values)
	if err != nil {
		return err
	}
	return s.backend.Apply(ctx, batch)
}

// SettingsBatch adds a put for every key, in sorted key order.
func SettingsBatch(b *store.Batch, values map[string]any) (*store.Batch, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		rec, err := EncodeSetting(k, values[k])
		if err != nil {
			return nil, err
		}
		b.Put(store.Settings, rec)
	}
	return b, nil
}

// Theme returns the current UI theme, or the default when unset or unknown.
func (s *Settings) Theme(ctx context.Context) (models.Theme, error) {
	value, err := s.Get(ctx, ThemeKey)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultTheme, nil
	}
	if err != nil {
		return "", err
	}

	name, _ := value.(string)
	theme, ok := models.ParseTheme(name)
	if !ok {
		s.logger.Warn("ignoring unknown stored theme", zap.Any("value", value))
		return models.DefaultTheme, nil
	}
	return theme, nil
}

func (s *Settings) SetTheme(ctx context.Context, name string) (models.Theme, error) {
	theme, ok := models.ParseTheme(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownTheme, name)
	}
	return theme, s.Save(ctx, map[string]any{ThemeKey: string(theme)})
}
