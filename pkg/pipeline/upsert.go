package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/news"
	"github.com/contentlab/newsgraph/pkg/telegram"
)

// Engine merges a finalized article into the graph. One call is one logical
// transaction: either the article node and all its relationships land, or the
// article is reported failed-and-retryable with nothing partially committed.
type Engine struct {
	store  graph.Store
	logger *zerolog.Logger
}

func NewEngine(store graph.Store, logger *zerolog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// ArticleDraft carries everything the engine needs to build the persisted
// record: the normalized message, the extracted metadata contract, and the
// detector verdict.
type ArticleDraft struct {
	TelegramMessageID string
	Channel           *news.Channel
	Normalized        telegram.NormalizedMessage
	Metadata          *news.Metadata
	Embedding         []float32
	Detection         *Detection
	PublishedAt       *time.Time
}

// Upsert validates and normalizes the metadata contract, assembles the
// article, and merges it into the store together with its SIMILAR_TO edges.
func (e *Engine) Upsert(ctx context.Context, draft *ArticleDraft) (*news.Article, error) {
	if draft.TelegramMessageID == "" {
		return nil, fmt.Errorf("article draft is missing a telegram message id")
	}
	if draft.Metadata == nil {
		draft.Metadata = &news.Metadata{}
	}
	draft.Metadata.Normalize(draft.Normalized.Content)

	article := e.buildArticle(draft)

	if err := e.store.UpsertArticle(ctx, article, draft.Channel); err != nil {
		return nil, fmt.Errorf("upsert article %s: %w", article.TelegramMessageID, err)
	}

	if draft.Detection != nil && len(draft.Detection.Matches) > 0 {
		if err := e.store.MergeSimilarityEdges(ctx, article.TelegramMessageID, draft.Detection.Matches); err != nil {
			return nil, fmt.Errorf("merge similarity edges for %s: %w", article.TelegramMessageID, err)
		}
	}

	e.logger.Info().
		Str("article_id", article.TelegramMessageID).
		Str("status", string(article.Status)).
		Int("topics", len(article.Topics)).
		Int("entities", len(article.Entities)).
		Msg("Article upserted")

	return article, nil
}

func (e *Engine) buildArticle(draft *ArticleDraft) *news.Article {
	m := draft.Metadata

	article := &news.Article{
		TelegramMessageID: draft.TelegramMessageID,
		RawText:           draft.Normalized.Content,
		Title:             m.Title,
		Summary:           m.Summary,
		MediaType:         string(draft.Normalized.Media.Type),
		MediaFileID:       draft.Normalized.Media.FileID,
		ForwardedFrom:     draft.Normalized.ForwardedFrom,
		Embedding:         draft.Embedding,
		Topics:            m.Topics,
		Tags:              m.Tags,
		Entities:          m.ToEntities(),
		CTAText:           m.CTAText,
		CTALink:           m.CTALink,

		TopicDecisionRequired: m.TopicDecisionRequired,

		Status:      resolveStatus(draft.Detection, m),
		PublishedAt: draft.PublishedAt,
	}
	if draft.Channel != nil {
		article.ChannelID = draft.Channel.ID
	}
	return article
}

// resolveStatus maps the detector verdict and the metadata flags onto the
// lifecycle state the article is persisted with.
func resolveStatus(detection *Detection, m *news.Metadata) news.Status {
	if detection != nil {
		switch detection.Classification {
		case ClassDuplicate:
			return news.StatusDuplicateFlagged
		case ClassNeedsReview:
			return news.StatusPendingDecision
		}
	}
	if m.TopicDecisionRequired {
		return news.StatusPendingDecision
	}
	return news.StatusIngested
}
