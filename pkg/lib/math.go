package lib

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
//
// Returns a value in [-1, 1], or 0 when either vector has zero magnitude
// or the dimensions do not match. Callers that need to distinguish the
// dimension-mismatch case should compare lengths before calling.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
