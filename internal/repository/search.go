// ABOUTME: Plain-text extraction and matching used by entry search.
// ABOUTME: Strips markup with bluemonday so tags never produce matches.

package repository

import (
	"html"
	"strings"

	"github.com/harper/diary/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes all markup from content and decodes entities.
func PlainText(content string) string {
	return html.UnescapeString(strict.Sanitize(content))
}

// Matches reports whether a lowercased query occurs in the entry's title
// or plain-text content.
func Matches(e *models.Entry, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(e.Title), lowerQuery) {
		return true
	}
	return strings.Contains(strings.ToLower(PlainText(e.Content)), lowerQuery)
}
