package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure ChunkRepository implements the interface.
var _ driven.ChunkRepository = (*ChunkRepository)(nil)

type chunkKey struct {
	doc   string
	chunk string
}

// ChunkRepository is an in-memory implementation of driven.ChunkRepository.
type ChunkRepository struct {
	mu     sync.RWMutex
	chunks map[chunkKey]domain.ChunkRecord
	now    func() time.Time
}

// NewChunkRepository creates an empty in-memory chunk repository.
func NewChunkRepository() *ChunkRepository {
	return &ChunkRepository{
		chunks: make(map[chunkKey]domain.ChunkRecord),
		now:    time.Now,
	}
}

// BulkUpsert stores chunks, replacing any with the same identity.
// Every write refreshes UpdatedAt, so every record counts as modified.
func (r *ChunkRepository) BulkUpsert(_ context.Context, chunks []domain.ChunkRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range chunks {
		key := chunkKey{c.DocumentID, c.ChunkID}
		c.Embedding = append([]float32(nil), c.Embedding...)
		c.UpdatedAt = r.now().UTC()
		r.chunks[key] = c
		n++
	}
	return n, nil
}

// DeleteByRefs removes the referenced chunks.
func (r *ChunkRepository) DeleteByRefs(_ context.Context, refs []domain.ChunkRef) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ref := range refs {
		if !ref.Valid() {
			continue
		}
		if !ref.IsWildcard() {
			key := chunkKey{ref.DocumentID, ref.ChunkID}
			if _, ok := r.chunks[key]; ok {
				delete(r.chunks, key)
				n++
			}
			continue
		}
		for key := range r.chunks {
			if key.doc == ref.DocumentID {
				delete(r.chunks, key)
				n++
			}
		}
	}
	return n, nil
}

// DeleteByFolder removes every chunk ingested from folderID.
func (r *ChunkRepository) DeleteByFolder(_ context.Context, folderID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, c := range r.chunks {
		if c.FolderID == folderID {
			delete(r.chunks, key)
			n++
		}
	}
	return n, nil
}

// ReplaceFolder deletes the folder's chunks then upserts chunks.
func (r *ChunkRepository) ReplaceFolder(ctx context.Context, folderID string, chunks []domain.ChunkRecord) (domain.ReplaceStats, error) {
	deleted, err := r.DeleteByFolder(ctx, folderID)
	if err != nil {
		return domain.ReplaceStats{}, err
	}
	upserted, err := r.BulkUpsert(ctx, chunks)
	return domain.ReplaceStats{Deleted: deleted, Upserted: upserted}, err
}

// SearchSimilar ranks all stored chunks against query.
func (r *ChunkRepository) SearchSimilar(_ context.Context, query []float32, topK int) ([]domain.ScoredChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.ChunkRecord, 0, len(r.chunks))
	for _, c := range r.chunks {
		all = append(all, c)
	}
	return domain.RankChunks(query, all, topK), nil
}

// Count returns the number of stored chunks.
func (r *ChunkRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks), nil
}

// Close is a no-op.
func (r *ChunkRepository) Close() error {
	return nil
}

// All returns a copy of every stored chunk ordered by identity.
func (r *ChunkRepository) All() []domain.ChunkRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ChunkRecord, 0, len(r.chunks))
	for _, c := range r.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}
