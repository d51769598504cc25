package graph

import (
	"context"
	"errors"
	"time"

	"github.com/contentlab/newsgraph/pkg/news"
)

var (
	// ErrNotFound indicates the requested article does not exist.
	ErrNotFound = errors.New("article not found")
	// ErrUnavailable wraps transport-level store failures. Callers treat it
	// as retryable.
	ErrUnavailable = errors.New("graph store unavailable")
	// ErrDimensionMismatch indicates the stored vector index and the incoming
	// embedding disagree on dimensions. This is a deployment misconfiguration
	// and is never retried or auto-migrated.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// SimilarityQuery is a nearest-neighbor search over the article embedding
// index. The querying article excludes itself via ExcludeID.
type SimilarityQuery struct {
	Embedding []float32
	ExcludeID string
	MinScore  float64
	Limit     int
}

// SimilarityEdge is one persisted SIMILAR_TO edge.
type SimilarityEdge struct {
	SourceID    string
	TargetID    string
	Score       float64
	LastChecked time.Time
}

// DigestEntry is one row of the weekly digest.
type DigestEntry struct {
	Day    string
	Title  string
	URL    string
	Topics []string
}

// Store is the property-graph persistence boundary of the pipeline.
//
// UpsertArticle is the single logical transaction per article: it merges the
// article node by its unique key, the channel/topic/entity nodes by their
// canonical keys, and all relationships, or fails without committing partial
// relationships. Concurrent upserts of the same key must converge on one
// node (conflict-as-merge).
type Store interface {
	// EnsureSchema creates the uniqueness constraint and the vector index.
	// A pre-existing index with different dimensions fails with
	// ErrDimensionMismatch.
	EnsureSchema(ctx context.Context, dimensions int) error

	UpsertArticle(ctx context.Context, article *news.Article, channel *news.Channel) error
	GetArticle(ctx context.Context, telegramMessageID string) (*news.Article, error)
	UpdateStatus(ctx context.Context, telegramMessageID string, status news.Status) error

	// ListActiveArticles returns articles eligible for sweeper re-scoring:
	// every article not flagged as a duplicate.
	ListActiveArticles(ctx context.Context) ([]*news.Article, error)

	FindSimilar(ctx context.Context, query SimilarityQuery) ([]news.SimilarityMatch, error)

	// MergeSimilarityEdges creates or updates SIMILAR_TO edges in place.
	// At most one edge exists per ordered pair; re-running with the same pair
	// updates score and lastChecked rather than duplicating the edge.
	MergeSimilarityEdges(ctx context.Context, sourceID string, matches []news.SimilarityMatch) error
	SimilarityEdges(ctx context.Context, sourceID string) ([]SimilarityEdge, error)
	DeleteSimilarityEdge(ctx context.Context, sourceID, targetID string) error

	WeeklyDigest(ctx context.Context, days int) ([]DigestEntry, error)
	ArticlesByEntity(ctx context.Context, entityName string, days int) ([]*news.Article, error)
	ArticlesByTopic(ctx context.Context, topic string) ([]*news.Article, error)

	Close(ctx context.Context) error
}
