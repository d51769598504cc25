package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
)

// maxEmbeddingChunk bounds a single chunk of embedding input.
const maxEmbeddingChunk = 2000

type ArticleEmbedder struct {
	embedder embeddings.Embedder
}

func NewEmbedder(model embedderModel) (*ArticleEmbedder, error) {
	embedder, err := embeddings.NewEmbedder(model)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &ArticleEmbedder{embedder: embedder}, nil
}

// Embed returns the embedding vector for an article's title and body.
func (e *ArticleEmbedder) Embed(ctx context.Context, title, body string) ([]float32, error) {
	out, err := e.embedder.EmbedQuery(ctx, EmbeddingInput(title, body))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return out, nil
}

// EmbeddingInput composes the canonical embedding input: title and body
// joined, split into bounded chunks so provider input limits hold for
// arbitrarily long posts.
func EmbeddingInput(title, body string) string {
	text := strings.TrimSpace(title)
	if body = strings.TrimSpace(body); body != "" {
		if text != "" {
			text += "\n\n"
		}
		text += body
	}
	return strings.Join(chunkText(text, maxEmbeddingChunk), "\n\n")
}

func chunkText(text string, maxChars int) []string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
