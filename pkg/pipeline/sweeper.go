package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/lib"
	"github.com/contentlab/newsgraph/pkg/news"
)

// Sweeper periodically re-scores SIMILAR_TO edges against the current
// embedding index and prunes edges that fell below the threshold. It is
// stateless between runs and the designed backstop for near-duplicates a
// concurrent ingest raced past.
type Sweeper struct {
	store  graph.Store
	config *Config
	logger *zerolog.Logger
}

func NewSweeper(store graph.Store, config *Config, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		config: config,
		logger: logger,
	}
}

// SweepFailure records one article whose re-scoring failed. Failures never
// abort the sweep for the remaining articles.
type SweepFailure struct {
	ArticleID string
	Err       error
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	SweepID  string
	Scanned  int
	Updated  int
	Pruned   int
	Failures []SweepFailure
	Duration time.Duration
}

// Run starts the sweep loop and blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("Sweep failed")
				continue
			}
			s.logReport(report)
		}
	}
}

// Sweep re-scores every active article once.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	start := time.Now()
	report := &SweepReport{SweepID: uuid.NewString()}

	articles, err := s.store.ListActiveArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active articles: %w", err)
	}
	report.Scanned = len(articles)

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.MaxConcurrency)

	for _, article := range articles {
		group.Go(func() error {
			updated, pruned, err := s.sweepArticle(groupCtx, article)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, SweepFailure{
					ArticleID: article.TelegramMessageID,
					Err:       err,
				})
				// Collected, not fatal to the batch.
				return nil
			}
			report.Updated += updated
			report.Pruned += pruned
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	return report, nil
}

// sweepArticle refreshes one article's similarity edges: matching edges get
// their score and lastChecked updated in place, edges whose refreshed score
// fell below the threshold are removed.
func (s *Sweeper) sweepArticle(ctx context.Context, article *news.Article) (updated, pruned int, err error) {
	if len(article.Embedding) == 0 {
		return 0, 0, nil
	}

	matches, err := s.store.FindSimilar(ctx, graph.SimilarityQuery{
		Embedding: article.Embedding,
		ExcludeID: article.TelegramMessageID,
		MinScore:  s.config.MinScore,
		Limit:     s.config.MaxCandidates,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("re-score article %s: %w", article.TelegramMessageID, err)
	}

	if len(matches) > 0 {
		if err := s.store.MergeSimilarityEdges(ctx, article.TelegramMessageID, matches); err != nil {
			return 0, 0, fmt.Errorf("refresh edges for %s: %w", article.TelegramMessageID, err)
		}
		updated = len(matches)
	}

	edges, err := s.store.SimilarityEdges(ctx, article.TelegramMessageID)
	if err != nil {
		return updated, 0, fmt.Errorf("list edges for %s: %w", article.TelegramMessageID, err)
	}

	current := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		current[match.ArticleID] = struct{}{}
	}

	for _, edge := range edges {
		if _, keep := current[edge.TargetID]; keep {
			continue
		}
		// The candidate query is top-K; a neighbor can rank outside it while
		// still scoring above the threshold. Re-score the pair before pruning.
		score, ok, err := s.rescorePair(ctx, article, edge.TargetID)
		if err != nil {
			return updated, pruned, err
		}
		if ok && score >= s.config.MinScore {
			refresh := []news.SimilarityMatch{{ArticleID: edge.TargetID, Score: score}}
			if err := s.store.MergeSimilarityEdges(ctx, article.TelegramMessageID, refresh); err != nil {
				return updated, pruned, fmt.Errorf("refresh edge %s -> %s: %w", edge.SourceID, edge.TargetID, err)
			}
			updated++
			continue
		}
		if err := s.store.DeleteSimilarityEdge(ctx, edge.SourceID, edge.TargetID); err != nil {
			return updated, pruned, fmt.Errorf("prune edge %s -> %s: %w", edge.SourceID, edge.TargetID, err)
		}
		pruned++
	}

	return updated, pruned, nil
}

// rescorePair computes the exact similarity between an article and one edge
// target. ok is false when the target is gone or carries no embedding; such
// an edge has nothing left to score against.
func (s *Sweeper) rescorePair(ctx context.Context, article *news.Article, targetID string) (score float64, ok bool, err error) {
	target, err := s.store.GetArticle(ctx, targetID)
	if errors.Is(err, graph.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load edge target %s: %w", targetID, err)
	}
	if len(target.Embedding) == 0 {
		return 0, false, nil
	}
	return lib.CosineSimilarity(article.Embedding, target.Embedding), true, nil
}

func (s *Sweeper) logReport(report *SweepReport) {
	event := s.logger.Info()
	if len(report.Failures) > 0 {
		event = s.logger.Warn()
	}
	event.
		Str("sweep_id", report.SweepID).
		Int("scanned", report.Scanned).
		Int("updated", report.Updated).
		Int("pruned", report.Pruned).
		Int("failures", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("Sweep complete")
}
