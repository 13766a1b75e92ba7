package domain

import (
	"math"
	"sort"
)

// Search limits.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// NormaliseTopK applies the default and upper bound to a requested result count.
func NormaliseTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// CosineSimilarity returns the cosine of the angle between a and b.
// ok is false when the vectors differ in length or either has zero norm.
func CosineSimilarity(a, b []float32) (score float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// RankChunks scores chunks against query and returns the best topK,
// highest first. Ties are broken by (DocumentID, ChunkID) ascending.
// Chunks whose embedding cannot be compared are dropped.
func RankChunks(query []float32, chunks []ChunkRecord, topK int) []ScoredChunk {
	if topK <= 0 {
		return []ScoredChunk{}
	}
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		s, ok := CosineSimilarity(query, c.Embedding)
		if !ok {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: c, Score: s})
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.DocumentID != b.Chunk.DocumentID {
			return a.Chunk.DocumentID < b.Chunk.DocumentID
		}
		return a.Chunk.ChunkID < b.Chunk.ChunkID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
