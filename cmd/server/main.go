package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/api"
	"github.com/contentlab/newsgraph/pkg/config"
	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/graph/memory"
	"github.com/contentlab/newsgraph/pkg/graph/neo4j"
	"github.com/contentlab/newsgraph/pkg/graph/postgres"
	"github.com/contentlab/newsgraph/pkg/lib/log"
	"github.com/contentlab/newsgraph/pkg/nlp"
	"github.com/contentlab/newsgraph/pkg/pipeline"
)

func main() {
	err := run()
	if err != nil {
		panic(err)
	}
}

func run() error {
	// Optional in deployment; environment variables win over the file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := log.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx := context.Background()
	server, sweeper, err := initServer(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go sweeper.Run(sweepCtx)

	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	return nil
}

func initServer(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) (*api.Server, *pipeline.Sweeper, error) {
	store, err := initStore(ctx, logger, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize graph store: %w", err)
	}

	if err := store.EnsureSchema(ctx, cfg.NLP.EmbeddingDimensions); err != nil {
		return nil, nil, fmt.Errorf("ensure graph schema: %w", err)
	}

	embeddingModel, err := nlp.NewEmbeddingModel(ctx, &cfg.NLP)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding model: %w", err)
	}

	completionModel, err := nlp.NewCompletionModel(ctx, &cfg.NLP)
	if err != nil {
		return nil, nil, fmt.Errorf("create completion model: %w", err)
	}

	llmCache := nlp.NewLLMCache(cfg.NLP.CacheTTL, logger)
	cachedEmbeddingModel := nlp.NewCachedEmbeddingModel(embeddingModel, llmCache)
	cachedCompletionModel := nlp.NewCachedCompletionModel(completionModel, llmCache)

	embedder, err := nlp.NewEmbedder(cachedEmbeddingModel)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}
	extractor := nlp.NewMetadataExtractor(cachedCompletionModel, logger)

	pipe := pipeline.New(store, embedder, extractor, &cfg.Pipeline, logger)
	sweeper := pipeline.NewSweeper(store, &cfg.Pipeline, logger)

	server := api.NewServer(logger, &cfg.API, pipe, store)
	return server, sweeper, nil
}

func initStore(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) (graph.Store, error) {
	switch cfg.GraphBackend {
	case "neo4j":
		store, err := neo4j.NewStore(&cfg.Neo4j, logger)
		if err != nil {
			return nil, fmt.Errorf("create neo4j store: %w", err)
		}
		if err := store.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to neo4j: %w", err)
		}
		return store, nil
	case "postgres":
		store := postgres.NewStore(&cfg.DB, logger)
		if err := store.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return store, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown graph backend: %s", cfg.GraphBackend)
	}
}
