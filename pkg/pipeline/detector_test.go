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
)

func seedArticle(t *testing.T, store *memory.Store, id string, embedding []float32, publishedAt time.Time) {
	t.Helper()
	err := store.UpsertArticle(context.Background(), &news.Article{
		TelegramMessageID: id,
		Title:             "seeded " + id,
		Embedding:         embedding,
		Status:            news.StatusIngested,
		PublishedAt:       &publishedAt,
	}, nil)
	require.NoError(t, err)
}

func TestDetector_ThresholdBoundary(t *testing.T) {
	logger := zerolog.Nop()
	store := memory.NewStore()
	old := time.Now().AddDate(0, -6, 0)

	// Identical unit vectors score exactly 1.0.
	seedArticle(t, store, "exact", []float32{1, 0}, old)
	seedArticle(t, store, "below", []float32{0.999, 0.0447101778}, old)

	config := testConfig()
	config.MinScore = 1.0
	detector := NewDetector(store, config, &logger)

	detection, err := detector.Detect(context.Background(), "query", []float32{1, 0})
	require.NoError(t, err)

	require.Len(t, detection.Matches, 1, "score == minScore is included, minScore - epsilon is not")
	assert.Equal(t, "exact", detection.Matches[0].ArticleID)
	assert.Equal(t, ClassDuplicate, detection.Classification)
}

func TestDetector_SelfExclusion(t *testing.T) {
	logger := zerolog.Nop()
	store := memory.NewStore()
	seedArticle(t, store, "100", []float32{1, 0}, time.Now().AddDate(0, -1, 0))

	detector := NewDetector(store, testConfig(), &logger)
	detection, err := detector.Detect(context.Background(), "100", []float32{1, 0})
	require.NoError(t, err)

	assert.Equal(t, ClassNovel, detection.Classification)
	assert.Empty(t, detection.Matches)
}

func TestDetector_NeedsReviewEscalation(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name         string
		publishedAt  time.Time
		reviewAlerts bool
		want         Classification
	}{
		{
			name:         "fresh candidate with alerts escalates",
			publishedAt:  time.Now().Add(-24 * time.Hour),
			reviewAlerts: true,
			want:         ClassNeedsReview,
		},
		{
			name:         "old candidate with alerts stays duplicate",
			publishedAt:  time.Now().AddDate(0, -2, 0),
			reviewAlerts: true,
			want:         ClassDuplicate,
		},
		{
			name:         "fresh candidate without alerts stays duplicate",
			publishedAt:  time.Now().Add(-24 * time.Hour),
			reviewAlerts: false,
			want:         ClassDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			seedArticle(t, store, "prior", []float32{1, 0}, tt.publishedAt)

			config := testConfig()
			config.ReviewAlerts = tt.reviewAlerts
			detector := NewDetector(store, config, &logger)

			detection, err := detector.Detect(context.Background(), "query", []float32{1, 0})
			require.NoError(t, err)
			assert.Equal(t, tt.want, detection.Classification)
		})
	}
}

func TestDetector_EmptyEmbedding(t *testing.T) {
	logger := zerolog.Nop()
	detector := NewDetector(memory.NewStore(), testConfig(), &logger)

	_, err := detector.Detect(context.Background(), "100", nil)
	require.Error(t, err)
	assert.True(t, Retryable(err), "a missing embedding must never classify as novel")
}
