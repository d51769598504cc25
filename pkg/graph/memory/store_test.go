package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/news"
)

func testArticle(id string) *news.Article {
	published := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return &news.Article{
		TelegramMessageID: id,
		RawText:           "Google launches X",
		Title:             "Google launches X",
		Embedding:         []float32{1, 0, 0},
		Topics:            []string{"agentic_ai"},
		Entities: []news.Entity{
			{Name: "Google", Type: news.EntityCompany},
		},
		Status:      news.StatusIngested,
		PublishedAt: &published,
	}
}

func testChannel() *news.Channel {
	return &news.Channel{ID: "42", Username: "technews", Title: "Tech News"}
}

func TestUpsertArticle_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	article := testArticle("100")
	require.NoError(t, store.UpsertArticle(ctx, article, testChannel()))
	require.NoError(t, store.UpsertArticle(ctx, article, testChannel()))

	assert.Len(t, store.articles, 1)
	assert.Len(t, store.channels, 1)
	assert.Len(t, store.entities, 1)
	assert.Len(t, store.about["100"], 1)
	assert.Len(t, store.mentions["100"], 1)
}

func TestUpsertArticle_MergeKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.UpsertArticle(ctx, testArticle("100"), testChannel()))

	updated := testArticle("100")
	updated.Summary = "An updated summary"
	updated.Status = news.StatusPendingDecision
	require.NoError(t, store.UpsertArticle(ctx, updated, testChannel()))

	got, err := store.GetArticle(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "100", got.TelegramMessageID)
	assert.Equal(t, "An updated summary", got.Summary)
	assert.Equal(t, news.StatusPendingDecision, got.Status)
}

func TestUpsertArticle_AliasAccumulation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := testArticle("100")
	first.Entities = []news.Entity{{Name: "OpenAI", Type: news.EntityCompany}}
	require.NoError(t, store.UpsertArticle(ctx, first, nil))

	second := testArticle("101")
	second.Entities = []news.Entity{{Name: "openai", Aliases: []string{"Open AI, Inc."}}}
	require.NoError(t, store.UpsertArticle(ctx, second, nil))

	require.Len(t, store.entities, 1)
	entity := store.entities["openai"]
	assert.Equal(t, "OpenAI", entity.Name)
	assert.Equal(t, news.EntityCompany, entity.Type)
	assert.Contains(t, entity.Aliases, "Open AI, Inc.")
}

func TestUpsertArticle_PartialFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	article := testArticle("100")
	article.Entities = []news.Entity{
		{Name: "Google", Type: news.EntityCompany},
		{Name: "DeepMind", Type: news.EntityCompany},
	}

	calls := 0
	store.EntityMergeHook = func(news.Entity) error {
		calls++
		if calls == 2 {
			return errors.New("entity merge failed")
		}
		return nil
	}

	err := store.UpsertArticle(ctx, article, testChannel())
	require.Error(t, err)

	_, err = store.GetArticle(ctx, "100")
	assert.ErrorIs(t, err, graph.ErrNotFound)
	assert.Empty(t, store.entities)
	assert.Empty(t, store.mentions["100"])
}

func TestEnsureSchema_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.EnsureSchema(ctx, 3))
	assert.ErrorIs(t, store.EnsureSchema(ctx, 4), graph.ErrDimensionMismatch)

	bad := testArticle("100")
	bad.Embedding = []float32{1, 0, 0, 0}
	assert.ErrorIs(t, store.UpsertArticle(ctx, bad, nil), graph.ErrDimensionMismatch)
}

func TestFindSimilar_SelfExclusionAndThreshold(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a := testArticle("100")
	a.Embedding = []float32{1, 0, 0}
	require.NoError(t, store.UpsertArticle(ctx, a, nil))

	b := testArticle("101")
	b.Embedding = []float32{0.9, 0.1, 0}
	require.NoError(t, store.UpsertArticle(ctx, b, nil))

	far := testArticle("102")
	far.Embedding = []float32{0, 0, 1}
	require.NoError(t, store.UpsertArticle(ctx, far, nil))

	matches, err := store.FindSimilar(ctx, graph.SimilarityQuery{
		Embedding: []float32{1, 0, 0},
		ExcludeID: "100",
		MinScore:  0.9,
		Limit:     10,
	})
	require.NoError(t, err)

	for _, match := range matches {
		assert.NotEqual(t, "100", match.ArticleID, "query must never return the excluded article")
		assert.GreaterOrEqual(t, match.Score, 0.9)
	}
	require.Len(t, matches, 1)
	assert.Equal(t, "101", matches[0].ArticleID)
}

func TestFindSimilar_RecencyTieBreak(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	older := testArticle("100")
	fresh := testArticle("101")
	freshTime := older.PublishedAt.Add(48 * time.Hour)
	fresh.PublishedAt = &freshTime

	// Identical embeddings give identical scores.
	require.NoError(t, store.UpsertArticle(ctx, older, nil))
	require.NoError(t, store.UpsertArticle(ctx, fresh, nil))

	matches, err := store.FindSimilar(ctx, graph.SimilarityQuery{
		Embedding: []float32{1, 0, 0},
		ExcludeID: "999",
		MinScore:  0.9,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "101", matches[0].ArticleID, "fresher article wins the tie")
}

func TestMergeSimilarityEdges_SingleEdgePerPair(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	matches := []news.SimilarityMatch{{ArticleID: "100", Score: 0.95}}
	require.NoError(t, store.MergeSimilarityEdges(ctx, "101", matches))

	matches[0].Score = 0.93
	require.NoError(t, store.MergeSimilarityEdges(ctx, "101", matches))

	edges, err := store.SimilarityEdges(ctx, "101")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, 0.93, edges[0].Score, "re-merge updates score in place")
}

func TestDeleteSimilarityEdge(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.MergeSimilarityEdges(ctx, "101", []news.SimilarityMatch{{ArticleID: "100", Score: 0.95}}))
	require.NoError(t, store.DeleteSimilarityEdge(ctx, "101", "100"))

	edges, err := store.SimilarityEdges(ctx, "101")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestListActiveArticles_ExcludesDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	active := testArticle("100")
	dup := testArticle("101")
	dup.Status = news.StatusDuplicateFlagged

	require.NoError(t, store.UpsertArticle(ctx, active, nil))
	require.NoError(t, store.UpsertArticle(ctx, dup, nil))

	articles, err := store.ListActiveArticles(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "100", articles[0].TelegramMessageID)
}

func TestArticlesByEntity_MatchesAlias(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	article := testArticle("100")
	article.Entities = []news.Entity{{Name: "OpenAI", Aliases: []string{"Open AI, Inc."}}}
	require.NoError(t, store.UpsertArticle(ctx, article, nil))

	got, err := store.ArticlesByEntity(ctx, "open ai, inc.", 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100", got[0].TelegramMessageID)
}

func TestPromotesRequiresCTAReference(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	article := testArticle("100")
	article.Entities = []news.Entity{
		{Name: "Acme", Type: news.EntityCompany},
		{Name: "Google", Type: news.EntityCompany},
	}
	article.CTAText = "Try Acme today"
	article.CTALink = "https://acme.example.com"
	require.NoError(t, store.UpsertArticle(ctx, article, nil))

	promoted := store.promotes["100"]
	assert.Contains(t, promoted, "acme")
	assert.NotContains(t, promoted, "google")
}
