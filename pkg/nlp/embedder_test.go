package nlp

import (
	"strings"
	"testing"
)

func TestEmbeddingInput(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{"title and body", "Headline", "Body text", "Headline\n\nBody text"},
		{"body only", "", "Body text", "Body text"},
		{"title only", "Headline", "", "Headline"},
		{"whitespace trimmed", "  Headline  ", "  Body  ", "Headline\n\nBody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmbeddingInput(tt.title, tt.body); got != tt.want {
				t.Errorf("EmbeddingInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkText(t *testing.T) {
	short := chunkText("abc", 10)
	if len(short) != 1 || short[0] != "abc" {
		t.Errorf("short text chunked to %v", short)
	}

	long := strings.Repeat("a", 25)
	chunks := chunkText(long, 10)
	if len(chunks) != 3 {
		t.Fatalf("chunk count = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 10 || len(chunks[2]) != 5 {
		t.Errorf("chunk sizes = %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if strings.Join(chunks, "") != long {
		t.Error("chunks do not reassemble the input")
	}
}
