package nlp

import "time"

type Config struct {
	// Embedding
	EmbeddingProvider   string `env:"LLM_EMBEDDING_PROVIDER,default=googleai" validate:"required,oneof=openai ollama googleai hash"`
	EmbeddingModel      string `env:"LLM_EMBEDDING_MODEL,default=gemini-embedding-001"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS,default=3072" validate:"required,gt=0"`

	// Completion (metadata extraction)
	CompletionProvider string `env:"LLM_COMPLETION_PROVIDER,default=openai" validate:"required,oneof=openai ollama googleai"`
	CompletionModel    string `env:"LLM_COMPLETION_MODEL,default=gpt-5-nano-2025-08-07"`

	// Provider specific configurations
	GoogleAPIKey      string `env:"GEMINI_API_KEY,default="`
	OllamaBaseURL     string `env:"OLLAMA_BASE_URL,default=http://localhost:11434"`
	OllamaContextSize int    `env:"OLLAMA_CONTEXT_SIZE,default=32768"`

	CacheTTL time.Duration `env:"LLM_CACHE_TTL,default=2h"`
}
