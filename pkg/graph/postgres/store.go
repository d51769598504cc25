// Package postgres implements the graph store on Postgres with pgvector.
//
// The property graph is rendered relationally: node tables for articles,
// channels, topics and entities, join tables for the ABOUT/MENTIONS/PROMOTES
// relationships, and a similar_to table keyed by the ordered article pair.
// Nearest-neighbor search uses the pgvector cosine operator.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/news"
)

type Store struct {
	cfg    *Config
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

var _ graph.Store = (*Store)(nil)

func NewStore(cfg *Config, logger *zerolog.Logger) *Store {
	return &Store{cfg: cfg, logger: logger}
}

// Connect opens the pool and registers the pgvector types on every
// connection.
func (s *Store) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(s.cfg.DSN())
	if err != nil {
		return fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", wrapTransport(err))
	}
	s.pool = pool
	return nil
}

func (s *Store) EnsureSchema(ctx context.Context, dimensions int) error {
	// Optional schema creation for local/dev environments. Managed
	// deployments own their migrations and only get the dimension check.
	if !s.cfg.AutoMigrate {
		return s.checkEmbeddingDimensions(ctx, dimensions)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS channels (
			id       text PRIMARY KEY,
			username text NOT NULL DEFAULT '',
			title    text NOT NULL DEFAULT ''
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS articles (
			telegram_message_id     text PRIMARY KEY,
			channel_id              text NOT NULL DEFAULT '',
			raw_text                text NOT NULL DEFAULT '',
			title                   text NOT NULL DEFAULT '',
			summary                 text NOT NULL DEFAULT '',
			url                     text NOT NULL DEFAULT '',
			media_type              text NOT NULL DEFAULT '',
			media_file_id           text NOT NULL DEFAULT '',
			forwarded_from          text NOT NULL DEFAULT '',
			embedding               vector(%d),
			tags                    text[] NOT NULL DEFAULT '{}',
			cta_text                text NOT NULL DEFAULT '',
			cta_link                text NOT NULL DEFAULT '',
			topic_decision_required boolean NOT NULL DEFAULT false,
			status                  text NOT NULL,
			published_at            timestamptz,
			ingested_at             timestamptz
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS article_embedding_idx
			ON articles USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS topics (
			name       text PRIMARY KEY,
			category   text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			key     text PRIMARY KEY,
			name    text NOT NULL,
			type    text NOT NULL DEFAULT 'other',
			aliases text[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS article_topics (
			article_id text NOT NULL REFERENCES articles(telegram_message_id),
			topic      text NOT NULL REFERENCES topics(name),
			PRIMARY KEY (article_id, topic)
		)`,
		`CREATE TABLE IF NOT EXISTS article_entities (
			article_id text NOT NULL REFERENCES articles(telegram_message_id),
			entity_key text NOT NULL REFERENCES entities(key),
			context    text NOT NULL DEFAULT '',
			promotes   boolean NOT NULL DEFAULT false,
			PRIMARY KEY (article_id, entity_key)
		)`,
		`CREATE TABLE IF NOT EXISTS similar_to (
			source_id    text NOT NULL REFERENCES articles(telegram_message_id),
			target_id    text NOT NULL REFERENCES articles(telegram_message_id),
			score        double precision NOT NULL,
			last_checked timestamptz NOT NULL,
			PRIMARY KEY (source_id, target_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", wrapTransport(err))
		}
	}

	return s.checkEmbeddingDimensions(ctx, dimensions)
}

// checkEmbeddingDimensions compares the declared vector column width against
// the configured embedder. A mismatch means the deployment points an embedder
// at an index built for a different model; that is fatal, not migratable.
func (s *Store) checkEmbeddingDimensions(ctx context.Context, dimensions int) error {
	var stored int
	err := s.pool.QueryRow(ctx, `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'articles'::regclass AND attname = 'embedding'
	`).Scan(&stored)
	if err != nil {
		return fmt.Errorf("read embedding column: %w", wrapTransport(err))
	}
	if stored > 0 && stored != dimensions {
		return fmt.Errorf("column has %d dimensions, embedder has %d: %w",
			stored, dimensions, graph.ErrDimensionMismatch)
	}
	return nil
}

func (s *Store) UpsertArticle(ctx context.Context, article *news.Article, channel *news.Channel) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", wrapTransport(err))
	}
	defer tx.Rollback(ctx)

	if channel != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO channels (id, username, title)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, title = EXCLUDED.title
		`, channel.ID, channel.Username, channel.Title)
		if err != nil {
			return fmt.Errorf("merge channel: %w", wrapTransport(err))
		}
	}

	var publishedAt *time.Time
	if article.PublishedAt != nil {
		t := article.PublishedAt.UTC()
		publishedAt = &t
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO articles (
			telegram_message_id, channel_id, raw_text, title, summary, url,
			media_type, media_file_id, forwarded_from, embedding, tags,
			cta_text, cta_link, topic_decision_required, status, published_at, ingested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		ON CONFLICT (telegram_message_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			raw_text = EXCLUDED.raw_text,
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			url = EXCLUDED.url,
			media_type = EXCLUDED.media_type,
			media_file_id = EXCLUDED.media_file_id,
			forwarded_from = EXCLUDED.forwarded_from,
			embedding = EXCLUDED.embedding,
			tags = EXCLUDED.tags,
			cta_text = EXCLUDED.cta_text,
			cta_link = EXCLUDED.cta_link,
			topic_decision_required = EXCLUDED.topic_decision_required,
			status = EXCLUDED.status,
			published_at = EXCLUDED.published_at,
			ingested_at = now()
	`,
		article.TelegramMessageID, article.ChannelID, article.RawText, article.Title,
		article.Summary, article.URL, article.MediaType, article.MediaFileID,
		article.ForwardedFrom, pgvector.NewVector(article.Embedding), article.Tags,
		article.CTAText, article.CTALink, article.TopicDecisionRequired,
		string(article.Status), publishedAt,
	)
	if err != nil {
		return fmt.Errorf("merge article: %w", wrapTransport(err))
	}

	_, err = tx.Exec(ctx, `DELETE FROM article_topics WHERE article_id = $1`, article.TelegramMessageID)
	if err != nil {
		return fmt.Errorf("clear topics: %w", wrapTransport(err))
	}
	for _, topic := range article.Topics {
		_, err = tx.Exec(ctx, `
			INSERT INTO topics (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
		`, topic)
		if err != nil {
			return fmt.Errorf("merge topic %q: %w", topic, wrapTransport(err))
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO article_topics (article_id, topic) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, article.TelegramMessageID, topic)
		if err != nil {
			return fmt.Errorf("attach topic %q: %w", topic, wrapTransport(err))
		}
	}

	promoted := promotedEntityKeys(article)
	for _, entity := range article.Entities {
		key := entityKey(entity.Name)
		_, err = tx.Exec(ctx, `
			INSERT INTO entities (key, name, type, aliases)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key) DO UPDATE SET
				type = EXCLUDED.type,
				aliases = ARRAY(SELECT DISTINCT unnest(entities.aliases || EXCLUDED.aliases))
		`, key, entity.Name, string(entity.Type), entity.Aliases)
		if err != nil {
			return fmt.Errorf("merge entity %q: %w", entity.Name, wrapTransport(err))
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO article_entities (article_id, entity_key, context, promotes)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (article_id, entity_key) DO UPDATE SET
				context = EXCLUDED.context,
				promotes = EXCLUDED.promotes
		`, article.TelegramMessageID, key, entity.Context, promoted[key])
		if err != nil {
			return fmt.Errorf("attach entity %q: %w", entity.Name, wrapTransport(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", wrapTransport(err))
	}
	return nil
}

const articleColumns = `
	a.telegram_message_id, a.channel_id, a.raw_text, a.title, a.summary, a.url,
	a.media_type, a.media_file_id, a.forwarded_from, a.embedding, a.tags,
	a.cta_text, a.cta_link, a.topic_decision_required, a.status, a.published_at, a.ingested_at,
	COALESCE((SELECT array_agg(at.topic) FROM article_topics at WHERE at.article_id = a.telegram_message_id), '{}')
`

func (s *Store) GetArticle(ctx context.Context, telegramMessageID string) (*news.Article, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.telegram_message_id = $1`,
		telegramMessageID)

	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, graph.ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", wrapTransport(err))
	}
	return article, nil
}

func (s *Store) UpdateStatus(ctx context.Context, telegramMessageID string, status news.Status) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status update: %w", wrapTransport(err))
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT status FROM articles WHERE telegram_message_id = $1 FOR UPDATE`,
		telegramMessageID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return graph.ErrNotFound
		}
		return fmt.Errorf("read status: %w", wrapTransport(err))
	}

	from, err := news.ParseStatus(current)
	if err != nil {
		return err
	}
	next, err := news.Transition(from, status)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE articles SET status = $1 WHERE telegram_message_id = $2`,
		string(next), telegramMessageID)
	if err != nil {
		return fmt.Errorf("write status: %w", wrapTransport(err))
	}
	return tx.Commit(ctx)
}

func (s *Store) ListActiveArticles(ctx context.Context) ([]*news.Article, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM articles a
		 WHERE a.status <> $1
		 ORDER BY a.telegram_message_id`,
		string(news.StatusDuplicateFlagged))
	if err != nil {
		return nil, fmt.Errorf("list active articles: %w", wrapTransport(err))
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (s *Store) FindSimilar(ctx context.Context, query graph.SimilarityQuery) ([]news.SimilarityMatch, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.pool.Query(ctx, `
		SELECT telegram_message_id, title, url, published_at,
		       1 - (embedding <=> $1) AS score
		FROM articles
		WHERE telegram_message_id <> $2
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $3
		ORDER BY score DESC, published_at DESC NULLS LAST
		LIMIT $4
	`, pgvector.NewVector(query.Embedding), query.ExcludeID, query.MinScore, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", wrapTransport(err))
	}
	defer rows.Close()

	var matches []news.SimilarityMatch
	for rows.Next() {
		var match news.SimilarityMatch
		var publishedAt *time.Time
		if err := rows.Scan(&match.ArticleID, &match.Title, &match.URL, &publishedAt, &match.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", wrapTransport(err))
		}
		if publishedAt != nil {
			match.PublishedAt = *publishedAt
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (s *Store) MergeSimilarityEdges(ctx context.Context, sourceID string, matches []news.SimilarityMatch) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin edge merge: %w", wrapTransport(err))
	}
	defer tx.Rollback(ctx)

	for _, match := range matches {
		_, err = tx.Exec(ctx, `
			INSERT INTO similar_to (source_id, target_id, score, last_checked)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (source_id, target_id) DO UPDATE SET
				score = EXCLUDED.score,
				last_checked = now()
		`, sourceID, match.ArticleID, match.Score)
		if err != nil {
			return fmt.Errorf("merge edge %s->%s: %w", sourceID, match.ArticleID, wrapTransport(err))
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) SimilarityEdges(ctx context.Context, sourceID string) ([]graph.SimilarityEdge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT target_id, score, last_checked
		FROM similar_to
		WHERE source_id = $1
		ORDER BY target_id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("similarity edges: %w", wrapTransport(err))
	}
	defer rows.Close()

	var out []graph.SimilarityEdge
	for rows.Next() {
		edge := graph.SimilarityEdge{SourceID: sourceID}
		if err := rows.Scan(&edge.TargetID, &edge.Score, &edge.LastChecked); err != nil {
			return nil, fmt.Errorf("scan edge: %w", wrapTransport(err))
		}
		out = append(out, edge)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSimilarityEdge(ctx context.Context, sourceID, targetID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM similar_to WHERE source_id = $1 AND target_id = $2`,
		sourceID, targetID)
	if err != nil {
		return fmt.Errorf("delete edge: %w", wrapTransport(err))
	}
	return nil
}

func (s *Store) WeeklyDigest(ctx context.Context, days int) ([]graph.DigestEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(a.published_at, 'YYYY-MM-DD') AS day, a.title, a.url,
		       COALESCE((SELECT array_agg(at.topic ORDER BY at.topic)
		                 FROM article_topics at
		                 WHERE at.article_id = a.telegram_message_id), '{}')
		FROM articles a
		WHERE a.published_at >= now() - make_interval(days => $1)
		ORDER BY day DESC, a.title ASC
	`, days)
	if err != nil {
		return nil, fmt.Errorf("weekly digest: %w", wrapTransport(err))
	}
	defer rows.Close()

	var out []graph.DigestEntry
	for rows.Next() {
		var entry graph.DigestEntry
		if err := rows.Scan(&entry.Day, &entry.Title, &entry.URL, &entry.Topics); err != nil {
			return nil, fmt.Errorf("scan digest entry: %w", wrapTransport(err))
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) ArticlesByEntity(ctx context.Context, entityName string, days int) ([]*news.Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN article_entities ae ON ae.article_id = a.telegram_message_id
		JOIN entities e ON e.key = ae.entity_key
		WHERE (e.key = $1 OR $1 = ANY(SELECT lower(unnest(e.aliases))))
		  AND a.published_at >= now() - make_interval(days => $2)
		ORDER BY a.published_at DESC
	`, entityKey(entityName), days)
	if err != nil {
		return nil, fmt.Errorf("articles by entity: %w", wrapTransport(err))
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (s *Store) ArticlesByTopic(ctx context.Context, topic string) ([]*news.Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN article_topics at ON at.article_id = a.telegram_message_id
		WHERE at.topic = $1
		ORDER BY a.published_at DESC NULLS LAST
	`, topic)
	if err != nil {
		return nil, fmt.Errorf("articles by topic: %w", wrapTransport(err))
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (s *Store) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func collectArticles(rows pgx.Rows) ([]*news.Article, error) {
	var out []*news.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", wrapTransport(err))
		}
		out = append(out, article)
	}
	return out, rows.Err()
}

func scanArticle(row pgx.Row) (*news.Article, error) {
	var (
		article     news.Article
		embedding   *pgvector.Vector
		status      string
		publishedAt *time.Time
		ingestedAt  *time.Time
		topics      []string
	)
	err := row.Scan(
		&article.TelegramMessageID, &article.ChannelID, &article.RawText,
		&article.Title, &article.Summary, &article.URL, &article.MediaType,
		&article.MediaFileID, &article.ForwardedFrom, &embedding, &article.Tags,
		&article.CTAText, &article.CTALink, &article.TopicDecisionRequired,
		&status, &publishedAt, &ingestedAt, &topics,
	)
	if err != nil {
		return nil, err
	}

	article.Status, err = news.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		article.Embedding = embedding.Slice()
	}
	article.PublishedAt = publishedAt
	article.IngestedAt = ingestedAt
	article.Topics = topics
	return &article, nil
}

func promotedEntityKeys(article *news.Article) map[string]bool {
	out := make(map[string]bool, len(article.Entities))
	if article.CTAText == "" && article.CTALink == "" {
		return out
	}
	haystack := strings.ToLower(article.CTAText + " " + article.CTALink)
	for _, entity := range article.Entities {
		key := entityKey(entity.Name)
		if strings.Contains(haystack, strings.ToLower(entity.Name)) {
			out[key] = true
			continue
		}
		for _, alias := range entity.Aliases {
			if strings.Contains(haystack, strings.ToLower(alias)) {
				out[key] = true
				break
			}
		}
	}
	return out
}

func entityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// wrapTransport marks everything except SQL-level errors as retryable
// transport failures. Unique violations never surface here: the merge
// statements resolve conflicts with ON CONFLICT, which is what makes a
// concurrent upsert of the same key a success-via-merge.
func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %v", graph.ErrUnavailable, err)
}
