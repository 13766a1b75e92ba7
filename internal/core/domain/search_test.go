package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseTopK(t *testing.T) {
	assert.Equal(t, DefaultTopK, NormaliseTopK(0))
	assert.Equal(t, DefaultTopK, NormaliseTopK(-3))
	assert.Equal(t, 7, NormaliseTopK(7))
	assert.Equal(t, MaxTopK, NormaliseTopK(1000))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float32
		want   float64
		wantOK bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, true},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, true},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, true},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0, false},
		{"empty", nil, nil, 0, false},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CosineSimilarity(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRankChunks(t *testing.T) {
	chunks := []ChunkRecord{
		{DocumentID: "b", ChunkID: "chunk_0001", Embedding: []float32{1, 0}},
		{DocumentID: "a", ChunkID: "chunk_0002", Embedding: []float32{1, 0}},
		{DocumentID: "a", ChunkID: "chunk_0001", Embedding: []float32{0, 1}},
		{DocumentID: "c", ChunkID: "chunk_0001"},
		{DocumentID: "d", ChunkID: "chunk_0001", Embedding: []float32{1, 1}},
	}

	got := RankChunks([]float32{1, 0}, chunks, 3)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].Chunk.DocumentID)
	assert.Equal(t, "chunk_0002", got[0].Chunk.ChunkID)
	assert.Equal(t, "b", got[1].Chunk.DocumentID)
	assert.Equal(t, "d", got[2].Chunk.DocumentID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)

	assert.Empty(t, RankChunks([]float32{1, 0}, nil, 3))
	assert.Empty(t, RankChunks([]float32{1, 0}, chunks, 0))
}
