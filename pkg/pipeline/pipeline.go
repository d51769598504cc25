package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/lib"
	"github.com/contentlab/newsgraph/pkg/news"
	"github.com/contentlab/newsgraph/pkg/telegram"
)

// Embedder converts article text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, title, body string) ([]float32, error)
}

// Extractor produces the editorial metadata contract from raw article text.
type Extractor interface {
	Extract(ctx context.Context, articleText string) (*news.Metadata, error)
}

// Pipeline processes inbound messages end to end: normalize, extract
// metadata, embed, detect duplicates, upsert into the graph. Messages are
// processed concurrently but each message's steps run strictly in order.
type Pipeline struct {
	embedder  Embedder
	extractor Extractor
	detector  *Detector
	engine    *Engine

	pool   pond.Pool
	config *Config
	logger *zerolog.Logger
}

// Result is the outcome of one message's processing.
type Result struct {
	Article        *news.Article
	Classification Classification
	Matches        []news.SimilarityMatch
}

func New(
	store graph.Store,
	embedder Embedder,
	extractor Extractor,
	config *Config,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		extractor: extractor,
		detector:  NewDetector(store, config, logger),
		engine:    NewEngine(store, logger),
		pool:      pond.NewPool(config.MaxConcurrency),
		config:    config,
		logger:    logger,
	}
}

// ProcessRaw decodes and processes a raw inbound payload.
func (p *Pipeline) ProcessRaw(ctx context.Context, raw []byte) (*Result, error) {
	msg, err := telegram.ParseMessage(raw)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	return p.Process(ctx, msg)
}

// Enqueue submits a message for asynchronous processing on the worker pool.
func (p *Pipeline) Enqueue(msg *telegram.Message) {
	p.pool.Submit(func() {
		if _, err := p.Process(context.Background(), msg); err != nil {
			p.logger.Error().
				Err(err).
				Int64("message_id", msg.MessageID).
				Bool("retryable", Retryable(err)).
				Msg("Failed to process message")
		}
	})
}

// Process runs the full pipeline for one message.
func (p *Pipeline) Process(ctx context.Context, msg *telegram.Message) (*Result, error) {
	if msg == nil || msg.MessageID == 0 {
		return nil, fmt.Errorf("message has no id")
	}

	runID := uuid.NewString()
	articleID := strconv.FormatInt(msg.MessageID, 10)
	logger := p.logger.With().
		Str("run_id", runID).
		Str("article_id", articleID).
		Logger()

	normalized := telegram.Normalize(msg)
	logger.Debug().
		Bool("has_content", normalized.HasContent()).
		Str("media_type", string(normalized.Media.Type)).
		Msg("Message normalized")

	metadata := p.extractMetadata(ctx, normalized, &logger)

	embedding, err := p.embed(ctx, metadata.Title, normalized.Content)
	if err != nil {
		// Never classify on a missing embedding; surface retryable instead of
		// under-deduplicating.
		return nil, retryable("embed article %s: %w", articleID, err)
	}

	detection, err := p.detect(ctx, articleID, embedding)
	if err != nil {
		return nil, err
	}

	draft := &ArticleDraft{
		TelegramMessageID: articleID,
		Channel:           channelFromMessage(msg),
		Normalized:        normalized,
		Metadata:          metadata,
		Embedding:         embedding,
		Detection:         detection,
		PublishedAt:       publishedAt(msg),
	}

	article, err := lib.RetryWithContext(ctx, lib.DefaultRetryConfig(), Retryable,
		func(ctx context.Context) (*news.Article, error) {
			ctx, cancel := context.WithTimeout(ctx, p.config.GraphTimeout)
			defer cancel()
			return p.engine.Upsert(ctx, draft)
		})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("classification", string(detection.Classification)).
		Str("status", string(article.Status)).
		Msg("Message processed")

	return &Result{
		Article:        article,
		Classification: detection.Classification,
		Matches:        detection.Matches,
	}, nil
}

// extractMetadata asks the LLM collaborator for the metadata contract. A
// failed or skipped extraction degrades to an empty contract; the engine's
// normalization fills the title fallback and the article lands in review
// rather than being dropped.
func (p *Pipeline) extractMetadata(ctx context.Context, normalized telegram.NormalizedMessage, logger *zerolog.Logger) *news.Metadata {
	if p.extractor == nil || !normalized.HasContent() {
		return &news.Metadata{TopicDecisionRequired: true}
	}

	metadata, err := p.extractor.Extract(ctx, normalized.Content)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("Metadata extraction failed, article will need review")
		return &news.Metadata{TopicDecisionRequired: true}
	}
	return metadata
}

func (p *Pipeline) embed(ctx context.Context, title, body string) ([]float32, error) {
	return lib.RetryWithContext(ctx, lib.DefaultRetryConfig(), transportRetryable,
		func(ctx context.Context) ([]float32, error) {
			ctx, cancel := context.WithTimeout(ctx, p.config.EmbedTimeout)
			defer cancel()
			return p.embedder.Embed(ctx, title, body)
		})
}

func (p *Pipeline) detect(ctx context.Context, articleID string, embedding []float32) (*Detection, error) {
	return lib.RetryWithContext(ctx, lib.DefaultRetryConfig(), Retryable,
		func(ctx context.Context) (*Detection, error) {
			ctx, cancel := context.WithTimeout(ctx, p.config.GraphTimeout)
			defer cancel()
			return p.detector.Detect(ctx, articleID, embedding)
		})
}

// StopAndWait drains the worker pool.
func (p *Pipeline) StopAndWait() {
	p.pool.StopAndWait()
}

func channelFromMessage(msg *telegram.Message) *news.Channel {
	if msg.Chat == nil {
		return nil
	}
	return &news.Channel{
		ID:       strconv.FormatInt(msg.Chat.ID, 10),
		Username: msg.Chat.Username,
		Title:    msg.Chat.Title,
	}
}

func publishedAt(msg *telegram.Message) *time.Time {
	if msg.Date == 0 {
		return nil
	}
	t := time.Unix(msg.Date, 0).UTC()
	return &t
}
