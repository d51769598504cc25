package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/news"
)

// Classification is the duplicate-detection verdict for one article.
type Classification string

const (
	// ClassNovel means no prior article scored at or above the threshold.
	ClassNovel Classification = "novel"
	// ClassDuplicate means at least one prior article matched.
	ClassDuplicate Classification = "duplicate_flagged"
	// ClassNeedsReview means the best match is fresh enough that an editor
	// should decide instead of the pipeline.
	ClassNeedsReview Classification = "needs_review"
)

// Detection is the detector output: the verdict plus the candidate list,
// ordered by descending score with recency as the tie-break.
type Detection struct {
	Classification Classification
	Matches        []news.SimilarityMatch
}

type Detector struct {
	store  graph.Store
	logger *zerolog.Logger

	minScore      float64
	maxCandidates int
	reviewWindow  time.Duration
	reviewAlerts  bool
}

func NewDetector(store graph.Store, config *Config, logger *zerolog.Logger) *Detector {
	return &Detector{
		store:         store,
		logger:        logger,
		minScore:      config.MinScore,
		maxCandidates: config.MaxCandidates,
		reviewWindow:  time.Duration(config.ReviewWindowDays) * 24 * time.Hour,
		reviewAlerts:  config.ReviewAlerts,
	}
}

// Detect runs the nearest-neighbor query for the article and classifies it.
// The article's own id is always excluded from the candidate set.
func (d *Detector) Detect(ctx context.Context, articleID string, embedding []float32) (*Detection, error) {
	if len(embedding) == 0 {
		return nil, retryable("detect %s: empty embedding", articleID)
	}

	matches, err := d.store.FindSimilar(ctx, graph.SimilarityQuery{
		Embedding: embedding,
		ExcludeID: articleID,
		MinScore:  d.minScore,
		Limit:     d.maxCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("find similar articles: %w", err)
	}

	detection := &Detection{
		Classification: d.classify(matches),
		Matches:        matches,
	}

	d.logger.Debug().
		Str("article_id", articleID).
		Str("classification", string(detection.Classification)).
		Int("candidates", len(matches)).
		Msg("Duplicate detection complete")

	return detection, nil
}

func (d *Detector) classify(matches []news.SimilarityMatch) Classification {
	if len(matches) == 0 {
		return ClassNovel
	}

	if d.reviewAlerts && d.reviewWindow > 0 {
		best := matches[0]
		if !best.PublishedAt.IsZero() && time.Since(best.PublishedAt) < d.reviewWindow {
			return ClassNeedsReview
		}
	}
	return ClassDuplicate
}
