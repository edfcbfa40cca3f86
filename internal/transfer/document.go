// ABOUTME: Portable export document and its tolerant parser.
// ABOUTME: Accepts the current wrapper object and the legacy bare entry array.

package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harper/diary/internal/models"
)

// Version is written into every exported document.
const Version = 2

var ErrInvalidFormat = errors.New("invalid import format")

// Document is the full data set as exported. Entries hold attachment
// references; payloads travel in Files.
type Document struct {
	Entries    []*models.Entry     `json:"entries"`
	Settings   map[string]any      `json:"settings,omitempty"`
	Files      []models.Attachment `json:"files,omitempty"`
	ExportDate time.Time           `json:"exportDate"`
	Version    int                 `json:"version,omitempty"`

	// entry index -> decode failure, filled by Parse
	invalid map[int]error
}

// wireEntry accepts numeric legacy ids and the legacy files alias.
type wireEntry struct {
	ID          json.RawMessage     `json:"id"`
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Theme       string              `json:"theme"`
	Date        string              `json:"date"`
	Attachments []models.Attachment `json:"attachments"`
	Files       []models.Attachment `json:"files"`
}

type wireDocument struct {
	Entries    json.RawMessage     `json:"entries"`
	Settings   map[string]any      `json:"settings"`
	Files      []models.Attachment `json:"files"`
	ExportDate string              `json:"exportDate"`
	Version    int                 `json:"version"`
}

// Parse reads an export document. Structural problems return
// ErrInvalidFormat; individual entries that fail to decode are reported
// later by Import.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	var rawEntries json.RawMessage
	doc := &Document{}

	switch trimmed[0] {
	case '[':
		rawEntries = trimmed
		doc.Version = 1
	case '{':
		var w wireDocument
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if len(w.Entries) == 0 || bytes.Equal(bytes.TrimSpace(w.Entries), []byte("null")) {
			return nil, fmt.Errorf("%w: missing entries", ErrInvalidFormat)
		}
		rawEntries = w.Entries
		doc.Settings = w.Settings
		doc.Files = w.Files
		doc.Version = w.Version
		if t, err := time.Parse(time.RFC3339Nano, w.ExportDate); err == nil {
			doc.ExportDate = t
		}
	default:
		return nil, fmt.Errorf("%w: expected an object or an array", ErrInvalidFormat)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawEntries, &elems); err != nil {
		return nil, fmt.Errorf("%w: entries must be an array", ErrInvalidFormat)
	}

	doc.Entries = make([]*models.Entry, len(elems))
	for i, elem := range elems {
		e, err := decodeEntry(elem)
		if err != nil {
			if doc.invalid == nil {
				doc.invalid = make(map[int]error)
			}
			doc.invalid[i] = err
			continue
		}
		doc.Entries[i] = e
	}
	return doc, nil
}

// ParseReader is Parse over a stream.
func ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	return Parse(data)
}

func decodeEntry(elem json.RawMessage) (*models.Entry, error) {
	var w wireEntry
	if err := json.Unmarshal(elem, &w); err != nil {
		return nil, err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return nil, err
	}

	var date time.Time
	if w.Date != "" {
		date, err = time.Parse(time.RFC3339Nano, w.Date)
		if err != nil {
			return nil, fmt.Errorf("unparseable date %q", w.Date)
		}
	}

	attachments := w.Attachments
	if attachments == nil {
		attachments = w.Files
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	return &models.Entry{
		ID:          id,
		Title:       w.Title,
		Content:     w.Content,
		Theme:       models.Theme(w.Theme),
		Date:        date,
		Attachments: attachments,
	}, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id must be a string or number, got %s", raw)
}

// Encode writes the document as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
