// ABOUTME: Tests for Attachment model.
// ABOUTME: Validates classification and data URL encoding.

package models

import (
	"errors"
	"testing"
)

func TestNewAttachment(t *testing.T) {
	data := []byte("fake pdf content")

	att := NewAttachment("test.pdf", "application/pdf", data)

	if att.ID == "" {
		t.Error("expected ID to be generated")
	}
	if att.Name != "test.pdf" {
		t.Errorf("expected name %q, got %q", "test.pdf", att.Name)
	}
	if att.Type != KindFile {
		t.Errorf("expected kind %q, got %q", KindFile, att.Type)
	}
	if att.Size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), att.Size)
	}
	if att.URL != "data:application/pdf;base64,ZmFrZSBwZGYgY29udGVudA==" {
		t.Errorf("unexpected data URL %q", att.URL)
	}

	got, err := att.Data()
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if string(got) != string(data) {
		t.Error("expected data to match")
	}
}

func TestNewAttachmentSniffsMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	att := NewAttachment("pic", "", png)

	if att.MimeType != "image/png" {
		t.Errorf("expected image/png, got %q", att.MimeType)
	}
	if att.Type != KindImage {
		t.Errorf("expected image kind, got %q", att.Type)
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"image/png":       KindImage,
		"IMAGE/JPEG":      KindImage,
		"video/mp4":       KindVideo,
		"application/zip": KindFile,
		"":                KindFile,
		"imagefake":       KindFile,
	}
	for mime, want := range tests {
		if got := Classify(mime); got != want {
			t.Errorf("Classify(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	inputs := []string{
		"blob:http://localhost/1234",
		"data:text/plain,hello",
		"data:text/plain;base64",
		"data:text/plain;base64,!!!",
	}
	for _, in := range inputs {
		if _, _, err := DecodeDataURL(in); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("DecodeDataURL(%q): expected ErrInvalidDataURL, got %v", in, err)
		}
	}
}

func TestAttachmentRef(t *testing.T) {
	att := NewAttachment("a.txt", "text/plain", []byte("hi"))

	ref := att.Ref()

	if ref.URL != "" {
		t.Error("expected ref to drop payload")
	}
	if att.URL == "" {
		t.Error("expected original to keep payload")
	}
	if ref.ID != att.ID || !ref.SameFile(att) {
		t.Error("expected ref to keep identity")
	}
}
