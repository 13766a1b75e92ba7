// Package hash provides a deterministic, non-semantic embedding used when no
// live embedding model is configured.
package hash

import (
	"context"
	"crypto/sha256"

	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// ModelName is reported for vectors produced by this service.
const ModelName = "sha256-fallback"

// EmbeddingService maps text to the 32 bytes of its SHA-256 digest, each
// scaled into [0, 1]. Equal text always yields equal vectors.
type EmbeddingService struct{}

// NewEmbeddingService creates the fallback embedding service.
func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

// Embed returns the digest vector for text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, len(sum))
	for i, b := range sum {
		vec[i] = float32(b) / 255
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = s.Embed(ctx, t)
	}
	return out, nil
}

// Dimensions returns 32.
func (s *EmbeddingService) Dimensions() int {
	return sha256.Size
}

// ModelName returns the fallback model name.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
