// ABOUTME: JSON encoding between domain models and store records.
// ABOUTME: Shared by the repositories and the import gateway's staged batches.

package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/store"
)

var (
	// ErrInvalidEntry wraps every entry validation failure.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrMissingPayload means a shared file was saved without its data URL.
	ErrMissingPayload  = errors.New("attachment has no payload")
	ErrPrefixTooShort  = errors.New("prefix must be at least 6 characters")
	ErrAmbiguousPrefix = errors.New("prefix matches multiple entries")
)

// setting is the stored shape of one settings key.
type setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func EncodeEntry(e *models.Entry) (store.Record, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return store.Record{}, fmt.Errorf("encode entry %s: %w", e.ID, err)
	}
	return store.Record{Key: e.ID, Value: data}, nil
}

func DecodeEntry(rec store.Record) (*models.Entry, error) {
	var e models.Entry
	if err := json.Unmarshal(rec.Value, &e); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", rec.Key, err)
	}
	if e.ID == "" {
		e.ID = rec.Key
	}
	if e.Attachments == nil {
		e.Attachments = []models.Attachment{}
	}
	return &e, nil
}

func EncodeAttachment(a *models.Attachment) (store.Record, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return store.Record{}, fmt.Errorf("encode attachment %s: %w", a.ID, err)
	}
	return store.Record{Key: a.ID, Value: data}, nil
}

func DecodeAttachment(rec store.Record) (*models.Attachment, error) {
	var a models.Attachment
	if err := json.Unmarshal(rec.Value, &a); err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", rec.Key, err)
	}
	if a.ID == "" {
		a.ID = rec.Key
	}
	return &a, nil
}

func EncodeSetting(key string, value any) (store.Record, error) {
	data, err := json.Marshal(setting{Key: key, Value: value})
	if err != nil {
		return store.Record{}, fmt.Errorf("encode setting %s: %w", key, err)
	}
	return store.Record{Key: key, Value: data}, nil
}

func decodeSetting(rec store.Record) (string, any, error) {
	var s setting
	if err := json.Unmarshal(rec.Value, &s); err != nil {
		return "", nil, fmt.Errorf("decode setting %s: %w", rec.Key, err)
	}
	if s.Key == "" {
		s.Key = rec.Key
	}
	return s.Key, s.Value, nil
}
