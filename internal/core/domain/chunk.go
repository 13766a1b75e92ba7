package domain

import (
	"fmt"
	"time"
)

// WildcardChunk is the chunk marker that selects every chunk of a document.
const WildcardChunk = "*"

// ChunkRecord is one unit of retrievable text.
// Identity is the composite (DocumentID, ChunkID).
type ChunkRecord struct {
	// FolderID is the watched folder the chunk was ingested from.
	FolderID string

	// DocumentID is the remote file identifier.
	DocumentID string

	// ChunkID is the contiguous, one-based chunk label (chunk_0001, ...).
	ChunkID string

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation of Content.
	Embedding []float32

	// Metadata describes the source file at ingestion time.
	Metadata SourceMetadata

	// Checksum is the remote content checksum, when the source provides one.
	Checksum string

	// Source is the human-readable origin (the file name).
	Source string

	// UpdatedAt is set by the repository on write.
	UpdatedAt time.Time
}

// SourceMetadata carries the remote file attributes stored with each chunk.
type SourceMetadata struct {
	FileName     string
	MimeType     string
	ModifiedTime string
	Revision     string
}

// ChunkRef addresses one chunk, or every chunk of a document when ChunkID
// is WildcardChunk.
type ChunkRef struct {
	DocumentID string
	ChunkID    string
}

// DocumentRef returns a wildcard reference covering all chunks of a document.
func DocumentRef(documentID string) ChunkRef {
	return ChunkRef{DocumentID: documentID, ChunkID: WildcardChunk}
}

// IsWildcard reports whether the reference selects every chunk of its document.
func (r ChunkRef) IsWildcard() bool {
	return r.ChunkID == WildcardChunk
}

// Valid reports whether both parts of the reference are set.
func (r ChunkRef) Valid() bool {
	return r.DocumentID != "" && r.ChunkID != ""
}

// ChunkID formats the one-based chunk label for position index.
func ChunkID(index int) string {
	return fmt.Sprintf("chunk_%04d", index)
}

// ScoredChunk is a similarity search hit.
type ScoredChunk struct {
	Chunk ChunkRecord

	// Score is the cosine similarity between the query and the chunk embedding.
	Score float64
}

// ReplaceStats reports the two halves of a folder replacement.
type ReplaceStats struct {
	Deleted  int
	Upserted int
}
