package hash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	svc := NewEmbeddingService()
	ctx := context.Background()

	a, err := svc.Embed(ctx, "quarterly report")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "quarterly report")
	require.NoError(t, err)
	c, err := svc.Embed(ctx, "quarterly reports")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
	assert.Equal(t, 32, svc.Dimensions())
}

func TestEmbed_Range(t *testing.T) {
	vec, err := NewEmbeddingService().Embed(context.Background(), "")
	require.NoError(t, err)
	for i, v := range vec {
		assert.GreaterOrEqual(t, v, float32(0), "component %d", i)
		assert.LessOrEqual(t, v, float32(1), "component %d", i)
	}
}

func TestEmbed_KnownDigest(t *testing.T) {
	// sha256("abc") begins with 0xba 0x78.
	vec, err := NewEmbeddingService().Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.InDelta(t, float32(0xba)/255, vec[0], 1e-6)
	assert.InDelta(t, float32(0x78)/255, vec[1], 1e-6)
}

func TestEmbedBatch(t *testing.T) {
	svc := NewEmbeddingService()
	ctx := context.Background()

	batch, err := svc.EmbedBatch(ctx, []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	x, _ := svc.Embed(ctx, "x")
	assert.Equal(t, x, batch[0])
	assert.Equal(t, ModelName, svc.ModelName())
	assert.NoError(t, svc.Ping(ctx))
	assert.NoError(t, svc.Close())
}
