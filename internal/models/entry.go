// ABOUTME: Entry model representing one themed diary record.
// ABOUTME: Provides constructor, validation and timestamp normalization.

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle   = errors.New("entry title cannot be empty")
	ErrEmptyContent = errors.New("entry content cannot be empty")
	ErrUnknownTheme = errors.New("unknown theme")
)

type Entry struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Theme       Theme        `json:"theme"`
	Date        time.Time    `json:"date"`
	Attachments []Attachment `json:"attachments"`
}

func NewEntry(title, content string, theme Theme) *Entry {
	return &Entry{
		ID:          NewID(),
		Title:       title,
		Content:     content,
		Theme:       theme,
		Date:        Now(),
		Attachments: []Attachment{},
	}
}

// NewID returns a collision-resistant record identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time at the precision stored on disk.
func Now() time.Time {
	return NormalizeTime(time.Now())
}

// NormalizeTime converts t to UTC with millisecond precision, matching the
// ISO-8601 strings written by older exports.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Validate checks the fields a stored entry must always carry.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(e.Content) == "" {
		return ErrEmptyContent
	}
	if e.Theme != "" && !e.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, e.Theme)
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate stored attachment slices.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Attachments = make([]Attachment, len(e.Attachments))
	copy(c.Attachments, e.Attachments)
	return &c
}
