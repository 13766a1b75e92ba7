// Package chunker provides a fixed-size, overlapping text chunker.
package chunker

import (
	"strings"

	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.TextSplitter = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Processor splits text into overlapping fixed-size windows.
// Sizes are measured in characters (runes), not bytes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split normalises line endings, trims the text and cuts it into windows of
// at most chunkSize characters. Each window starts overlap characters before
// the previous one ended, but always at least one character further, so the
// loop terminates even when overlap >= chunkSize. Empty or whitespace-only
// text yields no chunks.
func (p *Processor) Split(text string) []string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if cleaned == "" {
		return nil
	}

	runes := []rune(cleaned)
	length := len(runes)

	step := p.chunkSize - p.overlap
	if step < 1 {
		step = 1
	}
	chunks := make([]string, 0, length/step+1)

	start := 0
	for start < length {
		end := start + p.chunkSize
		if end > length {
			end = length
		}

		chunks = append(chunks, string(runes[start:end]))
		if end == length {
			break
		}

		start = max(end-p.overlap, start+1)
	}

	return chunks
}
