// Package plaintext extracts text from textual formats.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// Extractor handles plain text and text-like documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
// Any other text/* type is also accepted through IsText.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/markdown",
		"text/x-markdown",
		"text/tab-separated-values",
		"text/javascript",
		"text/xml",
		"application/json",
		"application/xml",
		"application/javascript",
	}
}

// Extract decodes data as text.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	return Decode(data), nil
}

// IsText reports whether a MIME type can be read directly as text.
func IsText(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/javascript":
		return true
	}
	return false
}

// Decode returns data as a string, reading it as UTF-8 when valid and as
// ISO-8859-1 otherwise. Latin-1 maps every byte, so decoding never fails.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}
