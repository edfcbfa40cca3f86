// ABOUTME: Builds the QR image link that points a phone at the diary page.
// ABOUTME: The code encodes a small JSON summary: page URL, entry count and timestamp.

package qr

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultSize     = 200
	DefaultMessage  = "Digital diary: reports and entries"
)

// Payload is the JSON carried inside the QR code.
type Payload struct {
	URL        string    `json:"url"`
	Entries    int       `json:"entries"`
	LastUpdate time.Time `json:"lastUpdate"`
	Message    string    `json:"message"`
}

func NewPayload(pageURL string, entries int, now time.Time) Payload {
	return Payload{
		URL:        pageURL,
		Entries:    entries,
		LastUpdate: now.UTC().Truncate(time.Millisecond),
		Message:    DefaultMessage,
	}
}

// Link returns the image URL for p. size is the square edge in pixels;
// zero means DefaultSize.
func Link(endpoint string, p Payload, size int) (string, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if size <= 0 {
		size = DefaultSize
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", fmt.Errorf("invalid qr endpoint: %w", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s?size=%dx%d&data=%s", endpoint, size, size, escape(string(data))), nil
}

// escape percent-encodes for a query value with spaces as %20. Unlike
// encodeURIComponent it also encodes !*'(), which decodes the same.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
