package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

func chunk(folder, doc, id string, emb ...float32) domain.ChunkRecord {
	return domain.ChunkRecord{
		FolderID:   folder,
		DocumentID: doc,
		ChunkID:    id,
		Content:    doc + "/" + id,
		Embedding:  emb,
	}
}

func TestChunkRepository_BulkUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository()

	n, err := repo.BulkUpsert(ctx, []domain.ChunkRecord{
		chunk("f", "d1", "chunk_0001", 1, 0),
		chunk("f", "d1", "chunk_0002", 0, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	updated := chunk("f", "d1", "chunk_0001", 1, 1)
	updated.Content = "new"
	n, err = repo.BulkUpsert(ctx, []domain.ChunkRecord{updated})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all := repo.All()
	assert.Equal(t, "new", all[0].Content)
	assert.False(t, all[0].UpdatedAt.IsZero())

	n, err = repo.BulkUpsert(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChunkRepository_DeleteByRefs(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository()
	_, err := repo.BulkUpsert(ctx, []domain.ChunkRecord{
		chunk("f", "d1", "chunk_0001"),
		chunk("f", "d1", "chunk_0002"),
		chunk("f", "d2", "chunk_0001"),
	})
	require.NoError(t, err)

	t.Run("specific chunk", func(t *testing.T) {
		n, err := repo.DeleteByRefs(ctx, []domain.ChunkRef{{DocumentID: "d2", ChunkID: "chunk_0001"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("missing refs count zero", func(t *testing.T) {
		n, err := repo.DeleteByRefs(ctx, []domain.ChunkRef{
			{DocumentID: "d9", ChunkID: "chunk_0001"},
			domain.DocumentRef("d9"),
			{DocumentID: "d1"},
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("wildcard removes every chunk of the document", func(t *testing.T) {
		n, err := repo.DeleteByRefs(ctx, []domain.ChunkRef{domain.DocumentRef("d1")})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestChunkRepository_ReplaceFolder(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository()
	_, err := repo.BulkUpsert(ctx, []domain.ChunkRecord{
		chunk("f1", "old", "chunk_0001"),
		chunk("f1", "old", "chunk_0002"),
		chunk("f2", "other", "chunk_0001"),
	})
	require.NoError(t, err)

	stats, err := repo.ReplaceFolder(ctx, "f1", []domain.ChunkRecord{chunk("f1", "new", "chunk_0001")})
	require.NoError(t, err)
	assert.Equal(t, domain.ReplaceStats{Deleted: 2, Upserted: 1}, stats)

	all := repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].DocumentID)
	assert.Equal(t, "other", all[1].DocumentID)

	n, err := repo.DeleteByFolder(ctx, "f2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChunkRepository_SearchSimilar(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository()

	results, err := repo.SearchSimilar(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = repo.BulkUpsert(ctx, []domain.ChunkRecord{
		chunk("f", "d1", "chunk_0001", 0, 1),
		chunk("f", "d2", "chunk_0001", 1, 0.1),
		chunk("f", "d3", "chunk_0001"),
	})
	require.NoError(t, err)

	results, err = repo.SearchSimilar(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d2", results[0].Chunk.DocumentID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestChunkRepository_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.BulkUpsert(ctx, []domain.ChunkRecord{chunk("f", "d", domain.ChunkID(i+1), 1)})
			_, _ = repo.SearchSimilar(ctx, []float32{1}, 3)
		}(i)
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
