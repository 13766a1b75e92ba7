package normalisers

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/normalisers/docx"
	"github.com/custodia-labs/kbsync/internal/normalisers/html"
	"github.com/custodia-labs/kbsync/internal/normalisers/pdf"
	"github.com/custodia-labs/kbsync/internal/normalisers/plaintext"
	"github.com/custodia-labs/kbsync/internal/normalisers/xlsx"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors. Unregistered text/* types fall
// back to the plain text extractor.
type Registry struct {
	extractors map[string]driven.ContentExtractor
	fallback   driven.ContentExtractor
}

// NewRegistry creates an empty registry with the plain text fallback.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.ContentExtractor),
		fallback:   plaintext.New(),
	}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(xlsx.New())
	return r
}

// Register adds an extractor for each of its MIME types.
// A later registration for the same type replaces the earlier one.
func (r *Registry) Register(e driven.ContentExtractor) {
	for _, mime := range e.SupportedMIMETypes() {
		r.extractors[mime] = e
	}
}

// Supports reports whether mimeType can be extracted.
func (r *Registry) Supports(mimeType string) bool {
	return r.lookup(mimeType) != nil
}

// Extract converts data using the extractor registered for mimeType.
func (r *Registry) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	e := r.lookup(mimeType)
	if e == nil {
		return "", fmt.Errorf("%w: no extractor for %s", domain.ErrInvalidInput, mimeType)
	}
	return e.Extract(ctx, data)
}

// MIMETypes returns the registered MIME types, sorted.
func (r *Registry) MIMETypes() []string {
	types := make([]string, 0, len(r.extractors))
	for mime := range r.extractors {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookup(mimeType string) driven.ContentExtractor {
	if e, ok := r.extractors[mimeType]; ok {
		return e
	}
	if plaintext.IsText(mimeType) {
		return r.fallback
	}
	return nil
}
