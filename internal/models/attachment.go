// ABOUTME: Attachment model for files attached to diary entries.
// ABOUTME: Payloads are self-contained base64 data URLs classified by MIME type.

package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the coarse classification shown next to an attachment.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindFile  Kind = "file"
)

const defaultMIME = "application/octet-stream"

var ErrInvalidDataURL = errors.New("invalid data URL")

type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     Kind   `json:"type"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime,omitempty"`
	// URL holds the encoded payload. Entries keep it empty and reference the
	// shared files collection by ID instead.
	URL string `json:"url,omitempty"`
}

// NewAttachment encodes data into a durable attachment. An empty mimeType is
// sniffed from the content.
func NewAttachment(name, mimeType string, data []byte) *Attachment {
	if mimeType == "" {
		mimeType = DetectMIME(data)
	}
	return &Attachment{
		ID:       NewID(),
		Name:     name,
		Type:     Classify(mimeType),
		Size:     int64(len(data)),
		MimeType: mimeType,
		URL:      EncodeDataURL(mimeType, data),
	}
}

// Classify maps a MIME type onto image, video or file by its primary type.
func Classify(mimeType string) Kind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	default:
		return KindFile
	}
}

func DetectMIME(data []byte) string {
	mt := mimetype.Detect(data)
	if mt == nil {
		return defaultMIME
	}
	return mt.String()
}

func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = defaultMIME
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the MIME type and payload of a base64 data URL.
func DecodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURL)
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if mimeType == "" {
		mimeType = "text/plain;charset=US-ASCII"
	}
	return mimeType, data, nil
}

// Inline reports whether the attachment carries its payload.
func (a *Attachment) Inline() bool {
	return a.URL != ""
}

// Ref strips the payload, leaving what an entry stores.
func (a Attachment) Ref() Attachment {
	a.URL = ""
	return a
}

// Data decodes the payload.
func (a *Attachment) Data() ([]byte, error) {
	_, data, err := DecodeDataURL(a.URL)
	return data, err
}

// SameFile reports whether two attachments share the (name, size) identity
// used for deduplication.
func (a *Attachment) SameFile(b *Attachment) bool {
	return a.Name == b.Name && a.Size == b.Size
}
