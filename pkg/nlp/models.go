package nlp

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

type embedderModel interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type completionModel interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// NewEmbeddingModel builds the embedding backend named by the config.
//
// The hash provider is deterministic and offline; it exists for tests and
// for running without credentials, and is only ever selected explicitly.
// A failing real provider is never substituted with it.
func NewEmbeddingModel(ctx context.Context, config *Config) (embedderModel, error) {
	switch config.EmbeddingProvider {
	case "openai":
		model, err := openai.New(
			openai.WithEmbeddingModel(config.EmbeddingModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai embedding model: %w", err)
		}
		return model, nil
	case "ollama":
		model, err := ollama.New(
			ollama.WithModel(config.EmbeddingModel),
			ollama.WithServerURL(config.OllamaBaseURL),
			ollama.WithRunnerNumCtx(config.OllamaContextSize),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedding model: %w", err)
		}
		return model, nil
	case "googleai":
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(config.GoogleAPIKey),
			googleai.WithDefaultEmbeddingModel(config.EmbeddingModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai embedding model: %w", err)
		}
		return model, nil
	case "hash":
		return NewHashEmbedder(config.EmbeddingDimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.EmbeddingProvider)
	}
}

// NewCompletionModel builds the completion backend for metadata extraction.
func NewCompletionModel(ctx context.Context, config *Config) (completionModel, error) {
	switch config.CompletionProvider {
	case "openai":
		model, err := openai.New(
			openai.WithModel(config.CompletionModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai completion model: %w", err)
		}
		return model, nil
	case "ollama":
		model, err := ollama.New(
			ollama.WithModel(config.CompletionModel),
			ollama.WithServerURL(config.OllamaBaseURL),
			ollama.WithRunnerNumCtx(config.OllamaContextSize),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama completion model: %w", err)
		}
		return model, nil
	case "googleai":
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(config.GoogleAPIKey),
			googleai.WithDefaultModel(config.CompletionModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai completion model: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", config.CompletionProvider)
	}
}
