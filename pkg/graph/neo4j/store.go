// Package neo4j implements the graph store on a Neo4j database.
//
// Articles are nodes with a uniqueness constraint on telegram_message_id and
// a cosine vector index over the embedding property; topics, entities and
// channels are merged by their canonical keys inside the same write
// transaction as the article, so a partial failure commits nothing.
package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/news"
)

const vectorIndexName = "article_embedding_idx"

type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zerolog.Logger
}

var _ graph.Store = (*Store)(nil)

func NewStore(cfg *Config, logger *zerolog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	return &Store{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// Connect verifies connectivity before the pipeline starts consuming.
func (s *Store) Connect(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("verify neo4j connectivity: %w", wrapTransport(err))
	}
	return nil
}

func (s *Store) EnsureSchema(ctx context.Context, dimensions int) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`CREATE CONSTRAINT article_telegram_unique IF NOT EXISTS
			 FOR (a:Article) REQUIRE a.telegram_message_id IS UNIQUE`, nil)
		if err != nil {
			return nil, err
		}

		_, err = tx.Run(ctx, fmt.Sprintf(
			`CREATE VECTOR INDEX %s IF NOT EXISTS
			 FOR (a:Article) ON (a.embedding)
			 OPTIONS {indexConfig: {
			   `+"`vector.dimensions`"+`: %d,
			   `+"`vector.similarity_function`"+`: 'cosine'
			 }}`, vectorIndexName, dimensions), nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("ensure schema: %w", wrapTransport(err))
	}

	return s.checkIndexDimensions(ctx, dimensions)
}

// checkIndexDimensions refuses to run against an index built for a different
// embedding model. Auto-migrating the index would silently corrupt similarity
// scores, so a mismatch is fatal.
func (s *Store) checkIndexDimensions(ctx context.Context, dimensions int) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`SHOW INDEXES YIELD name, options
		 WHERE name = $name
		 RETURN options`, map[string]any{"name": vectorIndexName})
	if err != nil {
		return fmt.Errorf("show indexes: %w", wrapTransport(err))
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect indexes: %w", wrapTransport(err))
	}
	if len(records) == 0 {
		return nil
	}

	options, _ := records[0].Get("options")
	optionsMap, ok := options.(map[string]any)
	if !ok {
		return nil
	}
	indexConfig, ok := optionsMap["indexConfig"].(map[string]any)
	if !ok {
		return nil
	}
	stored, ok := asInt(indexConfig["vector.dimensions"])
	if !ok {
		return nil
	}
	if stored != dimensions {
		return fmt.Errorf("index has %d dimensions, embedder has %d: %w",
			stored, dimensions, graph.ErrDimensionMismatch)
	}
	return nil
}

func (s *Store) UpsertArticle(ctx context.Context, article *news.Article, channel *news.Channel) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (a:Article {telegram_message_id: $id})
			SET a.channel_id = $channel_id,
			    a.raw_text = $raw_text,
			    a.title = $title,
			    a.summary = $summary,
			    a.url = $url,
			    a.media_type = $media_type,
			    a.media_file_id = $media_file_id,
			    a.forwarded_from = $forwarded_from,
			    a.embedding = $embedding,
			    a.tags = $tags,
			    a.cta_text = $cta_text,
			    a.cta_link = $cta_link,
			    a.topic_decision_required = $topic_decision_required,
			    a.status = $status,
			    a.published_at = $published_at,
			    a.ingested_at = $ingested_at
		`, articleParams(article)); err != nil {
			return nil, err
		}

		if channel != nil {
			if _, err := tx.Run(ctx, `
				MATCH (a:Article {telegram_message_id: $id})
				MERGE (c:Channel {id: $channel_id})
				SET c.username = $username,
				    c.title = $channel_title
				MERGE (c)-[:PUBLISHED]->(a)
			`, map[string]any{
				"id":            article.TelegramMessageID,
				"channel_id":    channel.ID,
				"username":      channel.Username,
				"channel_title": channel.Title,
			}); err != nil {
				return nil, err
			}
		}

		if _, err := tx.Run(ctx, `
			MATCH (a:Article {telegram_message_id: $id})
			OPTIONAL MATCH (a)-[stale:ABOUT]->(:Topic)
			DELETE stale
			WITH DISTINCT a
			FOREACH (topicName IN $topics |
			    MERGE (t:Topic {name: topicName})
			    ON CREATE SET t.created_at = datetime()
			    MERGE (a)-[:ABOUT]->(t)
			)
		`, map[string]any{
			"id":     article.TelegramMessageID,
			"topics": toAnySlice(article.Topics),
		}); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx, `
			MATCH (a:Article {telegram_message_id: $id})
			FOREACH (entity IN $entities |
			    MERGE (e:Entity {key: entity.key})
			    ON CREATE SET e.name = entity.name,
			                  e.type = entity.type,
			                  e.aliases = entity.aliases,
			                  e.created_at = datetime()
			    ON MATCH SET e.type = entity.type,
			                 e.aliases = coalesce(e.aliases, []) +
			                     [x IN entity.aliases WHERE NOT x IN coalesce(e.aliases, [])]
			    MERGE (a)-[m:MENTIONS]->(e)
			    SET m.context = entity.context
			)
		`, map[string]any{
			"id":       article.TelegramMessageID,
			"entities": entityParams(article.Entities),
		}); err != nil {
			return nil, err
		}

		promoted := promotedEntityKeys(article)
		if len(promoted) > 0 {
			if _, err := tx.Run(ctx, `
				MATCH (a:Article {telegram_message_id: $id})
				UNWIND $keys AS key
				MATCH (e:Entity {key: key})
				MERGE (a)-[:PROMOTES]->(e)
			`, map[string]any{
				"id":   article.TelegramMessageID,
				"keys": toAnySlice(promoted),
			}); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("upsert article %s: %w", article.TelegramMessageID, wrapTransport(err))
	}
	return nil
}

func (s *Store) GetArticle(ctx context.Context, telegramMessageID string) (*news.Article, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:Article {telegram_message_id: $id})
		OPTIONAL MATCH (a)-[:ABOUT]->(t:Topic)
		OPTIONAL MATCH (a)-[m:MENTIONS]->(e:Entity)
		RETURN a,
		       collect(DISTINCT t.name) AS topics,
		       collect(DISTINCT {name: e.name, type: e.type, aliases: e.aliases, context: m.context}) AS entities
	`, map[string]any{"id": telegramMessageID})
	if err != nil {
		return nil, fmt.Errorf("get article: %w", wrapTransport(err))
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect article: %w", wrapTransport(err))
	}
	if len(records) == 0 {
		return nil, graph.ErrNotFound
	}

	return articleFromRecord(records[0])
}

func (s *Store) UpdateStatus(ctx context.Context, telegramMessageID string, status news.Status) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			`MATCH (a:Article {telegram_message_id: $id}) RETURN a.status AS status`,
			map[string]any{"id": telegramMessageID})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, graph.ErrNotFound
		}

		currentRaw, _ := records[0].Get("status")
		current, err := news.ParseStatus(asString(currentRaw))
		if err != nil {
			return nil, err
		}
		next, err := news.Transition(current, status)
		if err != nil {
			return nil, err
		}

		_, err = tx.Run(ctx,
			`MATCH (a:Article {telegram_message_id: $id}) SET a.status = $status`,
			map[string]any{"id": telegramMessageID, "status": string(next)})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("update status: %w", wrapTransport(err))
	}
	return nil
}

func (s *Store) ListActiveArticles(ctx context.Context) ([]*news.Article, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:Article)
		WHERE a.status <> $duplicate
		OPTIONAL MATCH (a)-[:ABOUT]->(t:Topic)
		OPTIONAL MATCH (a)-[m:MENTIONS]->(e:Entity)
		RETURN a,
		       collect(DISTINCT t.name) AS topics,
		       collect(DISTINCT {name: e.name, type: e.type, aliases: e.aliases, context: m.context}) AS entities
		ORDER BY a.telegram_message_id
	`, map[string]any{"duplicate": string(news.StatusDuplicateFlagged)})
	if err != nil {
		return nil, fmt.Errorf("list active articles: %w", wrapTransport(err))
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect active articles: %w", wrapTransport(err))
	}

	out := make([]*news.Article, 0, len(records))
	for _, record := range records {
		article, err := articleFromRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, article)
	}
	return out, nil
}

func (s *Store) FindSimilar(ctx context.Context, query graph.SimilarityQuery) ([]news.SimilarityMatch, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	limit := query.Limit
	if limit <= 0 {
		limit = 5
	}

	// The index query must over-fetch by one because the querying article's
	// own node may occupy a slot before the WHERE clause removes it.
	result, err := session.Run(ctx, `
		CALL db.index.vector.queryNodes($index_name, $limit, $embedding)
		YIELD node, score
		WHERE node.telegram_message_id <> $exclude_id AND score >= $min_score
		RETURN node.telegram_message_id AS telegram_message_id,
		       node.title AS title,
		       node.url AS url,
		       node.published_at AS published_at,
		       score
		ORDER BY score DESC, node.published_at DESC
	`, map[string]any{
		"index_name": vectorIndexName,
		"limit":      limit + 1,
		"embedding":  toFloat64Slice(query.Embedding),
		"exclude_id": query.ExcludeID,
		"min_score":  query.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", wrapTransport(err))
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect vector query: %w", wrapTransport(err))
	}

	matches := make([]news.SimilarityMatch, 0, len(records))
	for _, record := range records {
		id, _ := record.Get("telegram_message_id")
		title, _ := record.Get("title")
		url, _ := record.Get("url")
		publishedAt, _ := record.Get("published_at")
		score, _ := record.Get("score")

		match := news.SimilarityMatch{
			ArticleID: asString(id),
			Title:     asString(title),
			URL:       asString(url),
			Score:     asFloat(score),
		}
		if t, ok := parseTime(asString(publishedAt)); ok {
			match.PublishedAt = t
		}
		matches = append(matches, match)
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) MergeSimilarityEdges(ctx context.Context, sourceID string, matches []news.SimilarityMatch) error {
	if len(matches) == 0 {
		return nil
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	matchParams := make([]any, 0, len(matches))
	for _, match := range matches {
		matchParams = append(matchParams, map[string]any{
			"telegram_message_id": match.ArticleID,
			"score":               match.Score,
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			UNWIND $matches AS match
			MATCH (source:Article {telegram_message_id: $source_id})
			MATCH (target:Article {telegram_message_id: match.telegram_message_id})
			MERGE (source)-[r:SIMILAR_TO]->(target)
			SET r.score = match.score,
			    r.last_checked = $now
		`, map[string]any{
			"source_id": sourceID,
			"matches":   matchParams,
			"now":       time.Now().UTC().Format(time.RFC3339),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("merge similarity edges: %w", wrapTransport(err))
	}
	return nil
}

func (s *Store) SimilarityEdges(ctx context.Context, sourceID string) ([]graph.SimilarityEdge, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (source:Article {telegram_message_id: $source_id})-[r:SIMILAR_TO]->(target:Article)
		RETURN target.telegram_message_id AS target_id, r.score AS score, r.last_checked AS last_checked
		ORDER BY target_id
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return nil, fmt.Errorf("similarity edges: %w", wrapTransport(err))
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect similarity edges: %w", wrapTransport(err))
	}

	out := make([]graph.SimilarityEdge, 0, len(records))
	for _, record := range records {
		targetID, _ := record.Get("target_id")
		score, _ := record.Get("score")
		lastChecked, _ := record.Get("last_checked")

		edge := graph.SimilarityEdge{
			SourceID: sourceID,
			TargetID: asString(targetID),
			Score:    asFloat(score),
		}
		if t, ok := parseTime(asString(lastChecked)); ok {
			edge.LastChecked = t
		}
		out = append(out, edge)
	}
	return out, nil
}

func (s *Store) DeleteSimilarityEdge(ctx context.Context, sourceID, targetID string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (:Article {telegram_message_id: $source_id})-[r:SIMILAR_TO]->(:Article {telegram_message_id: $target_id})
			DELETE r
		`, map[string]any{"source_id": sourceID, "target_id": targetID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("delete similarity edge: %w", wrapTransport(err))
	}
	return nil
}

func (s *Store) WeeklyDigest(ctx context.Context, days int) ([]graph.DigestEntry, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	result, err := session.Run(ctx, `
		MATCH (a:Article)
		WHERE a.published_at >= $cutoff
		OPTIONAL MATCH (a)-[:ABOUT]->(t:Topic)
		WITH a, collect(DISTINCT t.name) AS topics
		RETURN substring(a.published_at, 0, 10) AS day,
		       a.title AS title,
		       a.url AS url,
		       topics
		ORDER BY day DESC, title ASC
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		return nil, fmt.Errorf("weekly digest: %w", wrapTransport(err))
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect digest: %w", wrapTransport(err))
	}

	out := make([]graph.DigestEntry, 0, len(records))
	for _, record := range records {
		day, _ := record.Get("day")
		title, _ := record.Get("title")
		url, _ := record.Get("url")
		topics, _ := record.Get("topics")
		out = append(out, graph.DigestEntry{
			Day:    asString(day),
			Title:  asString(title),
			URL:    asString(url),
			Topics: asStringSlice(topics),
		})
	}
	return out, nil
}

func (s *Store) ArticlesByEntity(ctx context.Context, entityName string, days int) ([]*news.Article, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	result, err := session.Run(ctx, `
		MATCH (a:Article)-[:MENTIONS]->(e:Entity)
		WHERE (e.key = $key OR $key IN [x IN coalesce(e.aliases, []) | toLower(x)])
		  AND a.published_at >= $cutoff
		OPTIONAL MATCH (a)-[:ABOUT]->(t:Topic)
		RETURN a, collect(DISTINCT t.name) AS topics, [] AS entities
		ORDER BY a.published_at DESC
	`, map[string]any{
		"key":    strings.ToLower(strings.TrimSpace(entityName)),
		"cutoff": cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("articles by entity: %w", wrapTransport(err))
	}

	return collectArticles(ctx, result)
}

func (s *Store) ArticlesByTopic(ctx context.Context, topic string) ([]*news.Article, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:Article)-[:ABOUT]->(t:Topic {name: $topic})
		OPTIONAL MATCH (a)-[:ABOUT]->(other:Topic)
		RETURN a, collect(DISTINCT other.name) AS topics, [] AS entities
		ORDER BY a.published_at DESC
	`, map[string]any{"topic": topic})
	if err != nil {
		return nil, fmt.Errorf("articles by topic: %w", wrapTransport(err))
	}

	return collectArticles(ctx, result)
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func collectArticles(ctx context.Context, result neo4j.ResultWithContext) ([]*news.Article, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect articles: %w", wrapTransport(err))
	}

	out := make([]*news.Article, 0, len(records))
	for _, record := range records {
		article, err := articleFromRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, article)
	}
	return out, nil
}

func articleParams(article *news.Article) map[string]any {
	params := map[string]any{
		"id":                       article.TelegramMessageID,
		"channel_id":               article.ChannelID,
		"raw_text":                 article.RawText,
		"title":                    article.Title,
		"summary":                  article.Summary,
		"url":                      article.URL,
		"media_type":               article.MediaType,
		"media_file_id":            article.MediaFileID,
		"forwarded_from":           article.ForwardedFrom,
		"embedding":                toFloat64Slice(article.Embedding),
		"tags":                     toAnySlice(article.Tags),
		"cta_text":                 article.CTAText,
		"cta_link":                 article.CTALink,
		"topic_decision_required":  article.TopicDecisionRequired,
		"status":                   string(article.Status),
		"published_at":             "",
		"ingested_at":              time.Now().UTC().Format(time.RFC3339),
	}
	if article.PublishedAt != nil {
		params["published_at"] = article.PublishedAt.UTC().Format(time.RFC3339)
	}
	return params
}

func entityParams(entities []news.Entity) []any {
	out := make([]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, map[string]any{
			"key":     strings.ToLower(strings.TrimSpace(e.Name)),
			"name":    e.Name,
			"type":    string(e.Type),
			"aliases": toAnySlice(e.Aliases),
			"context": e.Context,
		})
	}
	return out
}

func promotedEntityKeys(article *news.Article) []string {
	if article.CTAText == "" && article.CTALink == "" {
		return nil
	}
	haystack := strings.ToLower(article.CTAText + " " + article.CTALink)

	var keys []string
	for _, entity := range article.Entities {
		if strings.Contains(haystack, strings.ToLower(entity.Name)) {
			keys = append(keys, strings.ToLower(strings.TrimSpace(entity.Name)))
			continue
		}
		for _, alias := range entity.Aliases {
			if strings.Contains(haystack, strings.ToLower(alias)) {
				keys = append(keys, strings.ToLower(strings.TrimSpace(entity.Name)))
				break
			}
		}
	}
	return keys
}

func articleFromRecord(record *neo4j.Record) (*news.Article, error) {
	nodeRaw, ok := record.Get("a")
	if !ok {
		return nil, fmt.Errorf("record is missing article node")
	}
	node, ok := nodeRaw.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected article node type %T", nodeRaw)
	}
	props := node.Props

	status, err := news.ParseStatus(asString(props["status"]))
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", asString(props["telegram_message_id"]), err)
	}

	article := &news.Article{
		TelegramMessageID:     asString(props["telegram_message_id"]),
		ChannelID:             asString(props["channel_id"]),
		RawText:               asString(props["raw_text"]),
		Title:                 asString(props["title"]),
		Summary:               asString(props["summary"]),
		URL:                   asString(props["url"]),
		MediaType:             asString(props["media_type"]),
		MediaFileID:           asString(props["media_file_id"]),
		ForwardedFrom:         asString(props["forwarded_from"]),
		Embedding:             toFloat32Slice(props["embedding"]),
		Tags:                  asStringSlice(props["tags"]),
		CTAText:               asString(props["cta_text"]),
		CTALink:               asString(props["cta_link"]),
		TopicDecisionRequired: asBool(props["topic_decision_required"]),
		Status:                status,
	}
	if t, ok := parseTime(asString(props["published_at"])); ok {
		article.PublishedAt = &t
	}
	if t, ok := parseTime(asString(props["ingested_at"])); ok {
		article.IngestedAt = &t
	}

	if topicsRaw, ok := record.Get("topics"); ok {
		article.Topics = asStringSlice(topicsRaw)
	}
	if entitiesRaw, ok := record.Get("entities"); ok {
		article.Entities = entitiesFromValue(entitiesRaw)
	}

	return article, nil
}

func entitiesFromValue(v any) []news.Entity {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []news.Entity
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := asString(m["name"])
		if name == "" {
			continue
		}
		out = append(out, news.Entity{
			Name:    name,
			Type:    news.ParseEntityType(asString(m["type"])),
			Aliases: asStringSlice(m["aliases"]),
			Context: asString(m["context"]),
		})
	}
	return out
}

// wrapTransport tags connectivity failures as retryable without masking
// logical errors like constraint or transition violations.
func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", graph.ErrUnavailable, err)
	}
	return err
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toFloat64Slice(values []float32) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func toFloat32Slice(v any) []float32 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			out = append(out, float32(n))
		case int64:
			out = append(out, float32(n))
		}
	}
	return out
}
