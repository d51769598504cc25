// Package memory implements the graph store as in-process maps.
//
// It exists for tests and for running the pipeline without a database; the
// semantics (merge by key, single edge per ordered pair, cosine similarity)
// match the real backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/lib"
	"github.com/contentlab/newsgraph/pkg/news"
)

type edgeKey struct {
	source string
	target string
}

type Store struct {
	mu         sync.RWMutex
	dimensions int

	articles map[string]*news.Article
	channels map[string]news.Channel
	entities map[string]news.Entity

	publishedBy map[string]string              // article id -> channel id
	about       map[string]map[string]struct{} // article id -> topic names
	mentions    map[string]map[string]struct{} // article id -> entity keys
	promotes    map[string]map[string]struct{} // article id -> entity keys
	edges       map[edgeKey]graph.SimilarityEdge

	// EntityMergeHook, when set, runs before each entity merge inside
	// UpsertArticle. Tests use it to simulate a partial failure and assert
	// that nothing was committed.
	EntityMergeHook func(news.Entity) error
}

var _ graph.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		articles:    make(map[string]*news.Article),
		channels:    make(map[string]news.Channel),
		entities:    make(map[string]news.Entity),
		publishedBy: make(map[string]string),
		about:       make(map[string]map[string]struct{}),
		mentions:    make(map[string]map[string]struct{}),
		promotes:    make(map[string]map[string]struct{}),
		edges:       make(map[edgeKey]graph.SimilarityEdge),
	}
}

func (s *Store) EnsureSchema(_ context.Context, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimensions != 0 && s.dimensions != dimensions {
		return fmt.Errorf("index has %d dimensions, embedder has %d: %w",
			s.dimensions, dimensions, graph.ErrDimensionMismatch)
	}
	s.dimensions = dimensions
	return nil
}

func (s *Store) UpsertArticle(_ context.Context, article *news.Article, channel *news.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimensions != 0 && len(article.Embedding) != 0 && len(article.Embedding) != s.dimensions {
		return fmt.Errorf("embedding has %d dimensions, index expects %d: %w",
			len(article.Embedding), s.dimensions, graph.ErrDimensionMismatch)
	}

	// Stage entity merges first so a failure commits nothing.
	stagedEntities := make(map[string]news.Entity, len(article.Entities))
	for _, entity := range article.Entities {
		if s.EntityMergeHook != nil {
			if err := s.EntityMergeHook(entity); err != nil {
				return fmt.Errorf("merge entity %q: %w", entity.Name, err)
			}
		}
		key := entityKey(entity.Name)
		merged := entity
		if existing, ok := s.entities[key]; ok {
			merged = mergeEntity(existing, entity)
		}
		stagedEntities[key] = merged
	}

	id := article.TelegramMessageID
	stored := cloneArticle(article)
	if existing, ok := s.articles[id]; ok {
		// Merge by unique key: the identity never changes, mutable fields do.
		stored.TelegramMessageID = existing.TelegramMessageID
	}
	now := time.Now().UTC()
	stored.IngestedAt = &now
	s.articles[id] = stored

	if channel != nil {
		s.channels[channel.ID] = *channel
		s.publishedBy[id] = channel.ID
	}

	topics := make(map[string]struct{}, len(article.Topics))
	for _, t := range article.Topics {
		topics[t] = struct{}{}
	}
	s.about[id] = topics

	mentionSet := make(map[string]struct{}, len(stagedEntities))
	for key, entity := range stagedEntities {
		s.entities[key] = entity
		mentionSet[key] = struct{}{}
	}
	s.mentions[id] = mentionSet

	promoteSet := make(map[string]struct{})
	if article.CTALink != "" || article.CTAText != "" {
		for key, entity := range stagedEntities {
			if ctaReferences(article, entity) {
				promoteSet[key] = struct{}{}
			}
		}
	}
	s.promotes[id] = promoteSet

	return nil
}

func (s *Store) GetArticle(_ context.Context, telegramMessageID string) (*news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	article, ok := s.articles[telegramMessageID]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return cloneArticle(article), nil
}

func (s *Store) UpdateStatus(_ context.Context, telegramMessageID string, status news.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[telegramMessageID]
	if !ok {
		return graph.ErrNotFound
	}
	next, err := news.Transition(article.Status, status)
	if err != nil {
		return err
	}
	article.Status = next
	return nil
}

func (s *Store) ListActiveArticles(_ context.Context) ([]*news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*news.Article, 0, len(s.articles))
	for _, article := range s.articles {
		if article.Status == news.StatusDuplicateFlagged {
			continue
		}
		out = append(out, cloneArticle(article))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TelegramMessageID < out[j].TelegramMessageID
	})
	return out, nil
}

func (s *Store) FindSimilar(_ context.Context, query graph.SimilarityQuery) ([]news.SimilarityMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []news.SimilarityMatch
	for id, article := range s.articles {
		if id == query.ExcludeID {
			continue
		}
		score := lib.CosineSimilarity(query.Embedding, article.Embedding)
		if score < query.MinScore {
			continue
		}
		match := news.SimilarityMatch{
			ArticleID: id,
			Title:     article.Title,
			URL:       article.URL,
			Score:     score,
		}
		if article.PublishedAt != nil {
			match.PublishedAt = *article.PublishedAt
		}
		matches = append(matches, match)
	}

	news.SortMatches(matches)
	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

func (s *Store) MergeSimilarityEdges(_ context.Context, sourceID string, matches []news.SimilarityMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, match := range matches {
		key := edgeKey{source: sourceID, target: match.ArticleID}
		s.edges[key] = graph.SimilarityEdge{
			SourceID:    sourceID,
			TargetID:    match.ArticleID,
			Score:       match.Score,
			LastChecked: now,
		}
	}
	return nil
}

func (s *Store) SimilarityEdges(_ context.Context, sourceID string) ([]graph.SimilarityEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []graph.SimilarityEdge
	for key, edge := range s.edges {
		if key.source == sourceID {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TargetID < out[j].TargetID
	})
	return out, nil
}

func (s *Store) DeleteSimilarityEdge(_ context.Context, sourceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.edges, edgeKey{source: sourceID, target: targetID})
	return nil
}

func (s *Store) WeeklyDigest(_ context.Context, days int) ([]graph.DigestEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var out []graph.DigestEntry
	for id, article := range s.articles {
		if article.PublishedAt == nil || article.PublishedAt.Before(cutoff) {
			continue
		}
		entry := graph.DigestEntry{
			Day:   article.PublishedAt.Format("2006-01-02"),
			Title: article.Title,
			URL:   article.URL,
		}
		for topic := range s.about[id] {
			entry.Topics = append(entry.Topics, topic)
		}
		sort.Strings(entry.Topics)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day > out[j].Day
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *Store) ArticlesByEntity(_ context.Context, entityName string, days int) ([]*news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var target string
	for key, entity := range s.entities {
		if news.MatchAlias(entityName, entity) {
			target = key
			break
		}
	}
	if target == "" {
		return nil, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var out []*news.Article
	for id, mentionSet := range s.mentions {
		if _, ok := mentionSet[target]; !ok {
			continue
		}
		article := s.articles[id]
		if article.PublishedAt == nil || article.PublishedAt.Before(cutoff) {
			continue
		}
		out = append(out, cloneArticle(article))
	}
	sortByPublishedDesc(out)
	return out, nil
}

func (s *Store) ArticlesByTopic(_ context.Context, topic string) ([]*news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*news.Article
	for id, topics := range s.about {
		if _, ok := topics[topic]; !ok {
			continue
		}
		out = append(out, cloneArticle(s.articles[id]))
	}
	sortByPublishedDesc(out)
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

func sortByPublishedDesc(articles []*news.Article) {
	sort.Slice(articles, func(i, j int) bool {
		var ti, tj time.Time
		if articles[i].PublishedAt != nil {
			ti = *articles[i].PublishedAt
		}
		if articles[j].PublishedAt != nil {
			tj = *articles[j].PublishedAt
		}
		return ti.After(tj)
	})
}

func entityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func mergeEntity(existing, incoming news.Entity) news.Entity {
	merged := existing
	if incoming.Type != news.EntityOther && existing.Type == news.EntityOther {
		merged.Type = incoming.Type
	}
	// Aliases accumulate, never overwrite.
	for _, alias := range incoming.Aliases {
		if !news.MatchAlias(alias, merged) {
			merged.Aliases = append(merged.Aliases, alias)
		}
	}
	if !strings.EqualFold(existing.Name, incoming.Name) && !news.MatchAlias(incoming.Name, merged) {
		merged.Aliases = append(merged.Aliases, incoming.Name)
	}
	return merged
}

func ctaReferences(article *news.Article, entity news.Entity) bool {
	haystack := strings.ToLower(article.CTAText + " " + article.CTALink)
	if strings.Contains(haystack, strings.ToLower(entity.Name)) {
		return true
	}
	for _, alias := range entity.Aliases {
		if strings.Contains(haystack, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

func cloneArticle(in *news.Article) *news.Article {
	out := *in
	out.Embedding = append([]float32(nil), in.Embedding...)
	out.Topics = append([]string(nil), in.Topics...)
	out.Tags = append([]string(nil), in.Tags...)
	out.Entities = append([]news.Entity(nil), in.Entities...)
	if in.PublishedAt != nil {
		t := *in.PublishedAt
		out.PublishedAt = &t
	}
	if in.IngestedAt != nil {
		t := *in.IngestedAt
		out.IngestedAt = &t
	}
	return &out
}
