package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"regexp"
	"strings"
	"sync"
)

var tokenPattern = regexp.MustCompile(`\w+`)

// HashEmbedder is a deterministic embedding backend built from token hashes.
// Repeated calls on unchanged text produce identical vectors, so the
// self-similarity of a text is exactly 1.0.
type HashEmbedder struct {
	dimensions int

	mu         sync.Mutex
	tokenCache map[string][]float64
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashEmbedder{
		dimensions: dimensions,
		tokenCache: make(map[string][]float64),
	}
}

func (h *HashEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *HashEmbedder) embed(text string) []float32 {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		tokens = []string{"empty"}
	}

	sum := make([]float64, h.dimensions)
	for _, token := range tokens {
		vector := h.tokenVector(token)
		for i, v := range vector {
			sum[i] += v
		}
	}

	out := make([]float32, h.dimensions)
	for i := range sum {
		out[i] = float32(sum[i] / float64(len(tokens)))
	}
	return out
}

func (h *HashEmbedder) tokenVector(token string) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if vector, ok := h.tokenCache[token]; ok {
		return vector
	}

	digest := sha256.Sum256([]byte(token))
	seed := int64(binary.BigEndian.Uint64(digest[:8]))
	rng := rand.New(rand.NewSource(seed))

	vector := make([]float64, h.dimensions)
	for i := range vector {
		vector[i] = rng.Float64()*2 - 1
	}
	h.tokenCache[token] = vector
	return vector
}
