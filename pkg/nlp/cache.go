package nlp

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

type cacheEntry struct {
	value      any
	expiration time.Time
}

type LLMCache struct {
	logger  *zerolog.Logger
	entries map[string]cacheEntry
	mu      sync.RWMutex
	ttl     time.Duration
}

func NewLLMCache(ttl time.Duration, logger *zerolog.Logger) *LLMCache {
	return &LLMCache{
		logger:  logger,
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *LLMCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiration) {
		return nil, false
	}

	c.logger.Debug().
		Str("key", key).
		Msg("LLM cache hit")

	return entry.value, true
}

func (c *LLMCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// CachedEmbeddingModel caches per-text embedding results so that re-ingests
// of an unchanged message do not spend provider quota.
type CachedEmbeddingModel struct {
	model embedderModel
	cache *LLMCache
}

func NewCachedEmbeddingModel(model embedderModel, cache *LLMCache) *CachedEmbeddingModel {
	return &CachedEmbeddingModel{
		model: model,
		cache: cache,
	}
}

func (cm *CachedEmbeddingModel) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	uncachedIndices := make([]int, 0)
	uncachedTexts := make([]string, 0)

	for i, text := range texts {
		key := cacheKey("embedding", text)
		if response, found := cm.cache.Get(key); found {
			if embedding, ok := response.([]float32); ok {
				results[i] = embedding
				continue
			}
		}
		uncachedIndices = append(uncachedIndices, i)
		uncachedTexts = append(uncachedTexts, text)
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	uncachedEmbeddings, err := cm.model.CreateEmbedding(ctx, uncachedTexts)
	if err != nil {
		return nil, err
	}

	for i, embedding := range uncachedEmbeddings {
		originalIndex := uncachedIndices[i]
		cm.cache.Set(cacheKey("embedding", uncachedTexts[i]), embedding)
		results[originalIndex] = embedding
	}

	return results, nil
}

// CachedCompletionModel caches completion results keyed by prompt.
type CachedCompletionModel struct {
	model completionModel
	cache *LLMCache
}

func NewCachedCompletionModel(model completionModel, cache *LLMCache) *CachedCompletionModel {
	return &CachedCompletionModel{
		model: model,
		cache: cache,
	}
}

func (cm *CachedCompletionModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	key := cacheKey("completion", prompt)

	if response, found := cm.cache.Get(key); found {
		if value, ok := response.(string); ok {
			return value, nil
		}
	}

	response, err := cm.model.Call(ctx, prompt, options...)
	if err != nil {
		return "", err
	}

	cm.cache.Set(key, response)
	return response, nil
}

func cacheKey(params ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(params, ",")))
	return fmt.Sprintf("%x", hash)
}
