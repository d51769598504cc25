package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentlab/newsgraph/pkg/graph/memory"
	"github.com/contentlab/newsgraph/pkg/news"
	"github.com/contentlab/newsgraph/pkg/telegram"
)

func TestEngine_Upsert_NormalizesContract(t *testing.T) {
	logger := zerolog.Nop()
	store := memory.NewStore()
	engine := NewEngine(store, &logger)

	published := time.Now().Add(-time.Hour).UTC()
	article, err := engine.Upsert(context.Background(), &ArticleDraft{
		TelegramMessageID: "100",
		Channel:           &news.Channel{ID: "42", Username: "technews"},
		Normalized:        telegram.NormalizedMessage{Content: "Google launches X. Details follow."},
		Metadata: &news.Metadata{
			Topics:  []string{"fine_tuning", "cooking"},
			Tags:    []string{"AI", "ai"},
			CTAText: "Read more",
			CTALink: "example.com/story",
		},
		Embedding:   []float32{1, 0},
		Detection:   &Detection{Classification: ClassNovel},
		PublishedAt: &published,
	})
	require.NoError(t, err)

	assert.Equal(t, "Google launches X", article.Title, "missing title falls back to the first clause")
	assert.Equal(t, []string{"fine_tuning_and_customization"}, article.Topics)
	assert.Equal(t, []string{"ai"}, article.Tags)
	assert.Equal(t, "https://example.com/story", article.CTALink)
	assert.Equal(t, "42", article.ChannelID)
	assert.Equal(t, news.StatusIngested, article.Status)

	persisted, err := store.GetArticle(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, article.Title, persisted.Title)
}

func TestEngine_Upsert_NilMetadata(t *testing.T) {
	logger := zerolog.Nop()
	engine := NewEngine(memory.NewStore(), &logger)

	article, err := engine.Upsert(context.Background(), &ArticleDraft{
		TelegramMessageID: "100",
		Normalized:        telegram.NormalizedMessage{Content: "Bare message"},
		Embedding:         []float32{1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bare message", article.Title)
	assert.Equal(t, news.StatusIngested, article.Status)
}

func TestEngine_Upsert_MissingID(t *testing.T) {
	logger := zerolog.Nop()
	engine := NewEngine(memory.NewStore(), &logger)

	_, err := engine.Upsert(context.Background(), &ArticleDraft{})
	require.Error(t, err)
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name      string
		detection *Detection
		metadata  *news.Metadata
		want      news.Status
	}{
		{
			name:      "novel and classified",
			detection: &Detection{Classification: ClassNovel},
			metadata:  &news.Metadata{Topics: []string{"agentic_ai"}},
			want:      news.StatusIngested,
		},
		{
			name:      "duplicate",
			detection: &Detection{Classification: ClassDuplicate},
			metadata:  &news.Metadata{},
			want:      news.StatusDuplicateFlagged,
		},
		{
			name:      "needs review",
			detection: &Detection{Classification: ClassNeedsReview},
			metadata:  &news.Metadata{},
			want:      news.StatusPendingDecision,
		},
		{
			name:      "novel but topic decision required",
			detection: &Detection{Classification: ClassNovel},
			metadata:  &news.Metadata{TopicDecisionRequired: true},
			want:      news.StatusPendingDecision,
		},
		{
			name:     "no detection, decision required",
			metadata: &news.Metadata{TopicDecisionRequired: true},
			want:     news.StatusPendingDecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveStatus(tt.detection, tt.metadata))
		})
	}
}
