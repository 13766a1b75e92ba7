package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "chunk_0001", ChunkID(1))
	assert.Equal(t, "chunk_0042", ChunkID(42))
	assert.Equal(t, "chunk_12345", ChunkID(12345))
}

func TestChunkRef(t *testing.T) {
	ref := DocumentRef("doc-1")
	assert.True(t, ref.IsWildcard())
	assert.True(t, ref.Valid())

	specific := ChunkRef{DocumentID: "doc-1", ChunkID: "chunk_0002"}
	assert.False(t, specific.IsWildcard())
	assert.True(t, specific.Valid())

	assert.False(t, ChunkRef{DocumentID: "doc-1"}.Valid())
	assert.False(t, ChunkRef{ChunkID: "*"}.Valid())
}
