package driven

import (
	"context"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// ChunkRepository persists chunk records keyed by (DocumentID, ChunkID).
// Every operation is idempotent under retry.
type ChunkRepository interface {
	// BulkUpsert writes all chunks as one unordered batch and returns the
	// number of records inserted or modified. A failing entry does not stop
	// the others from applying.
	BulkUpsert(ctx context.Context, chunks []domain.ChunkRecord) (int, error)

	// DeleteByRefs removes chunks by reference. A wildcard ref removes every
	// chunk of its document. Refs that match nothing count as zero.
	DeleteByRefs(ctx context.Context, refs []domain.ChunkRef) (int, error)

	// DeleteByFolder removes every chunk tagged with folderID.
	DeleteByFolder(ctx context.Context, folderID string) (int, error)

	// ReplaceFolder deletes the folder's chunks then upserts chunks.
	// The two steps are not atomic: a failure between them leaves the folder
	// empty until the replacement is retried.
	ReplaceFolder(ctx context.Context, folderID string, chunks []domain.ChunkRecord) (domain.ReplaceStats, error)

	// SearchSimilar ranks stored chunks by cosine similarity to query and
	// returns at most topK, highest first. Chunks without an embedding are
	// excluded. An empty store yields an empty result.
	SearchSimilar(ctx context.Context, query []float32, topK int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
