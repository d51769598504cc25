package nlp

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

type countingModel struct {
	completions int
	embeddings  int
}

func (m *countingModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	m.completions++
	return "response", nil
}

func (m *countingModel) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	m.embeddings += len(texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func TestCachedCompletionModel(t *testing.T) {
	logger := zerolog.Nop()
	model := &countingModel{}
	cached := NewCachedCompletionModel(model, NewLLMCache(time.Minute, &logger))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		out, err := cached.Call(ctx, "same prompt")
		if err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if out != "response" {
			t.Errorf("Call() = %q", out)
		}
	}

	if model.completions != 1 {
		t.Errorf("model called %d times, want 1", model.completions)
	}
}

func TestCachedEmbeddingModel_PartialHit(t *testing.T) {
	logger := zerolog.Nop()
	model := &countingModel{}
	cached := NewCachedEmbeddingModel(model, NewLLMCache(time.Minute, &logger))

	ctx := context.Background()
	if _, err := cached.CreateEmbedding(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("CreateEmbedding() error = %v", err)
	}
	out, err := cached.CreateEmbedding(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("CreateEmbedding() error = %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("result length = %d, want 3", len(out))
	}
	for i, v := range out {
		if len(v) != 3 {
			t.Errorf("embedding %d missing, got %v", i, v)
		}
	}
	// Only "c" should have hit the provider on the second call.
	if model.embeddings != 3 {
		t.Errorf("provider embedded %d texts, want 3", model.embeddings)
	}
}

func TestLLMCache_Expiry(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewLLMCache(-time.Second, &logger)

	cache.Set("k", "v")
	if _, found := cache.Get("k"); found {
		t.Error("expired entry returned")
	}
}
