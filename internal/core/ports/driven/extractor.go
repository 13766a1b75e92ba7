package driven

import "context"

// ContentExtractor converts downloaded file bytes into plain text.
type ContentExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract returns the plain text of data.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorRegistry selects an extractor by MIME type.
type ExtractorRegistry interface {
	// Supports reports whether some extractor handles mimeType.
	Supports(mimeType string) bool

	// Extract converts data using the extractor registered for mimeType.
	// Returns domain.ErrInvalidInput when no extractor handles the type.
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}
