package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/config"
	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/graph/memory"
	"github.com/contentlab/newsgraph/pkg/graph/neo4j"
	"github.com/contentlab/newsgraph/pkg/graph/postgres"
	"github.com/contentlab/newsgraph/pkg/lib/log"
	"github.com/contentlab/newsgraph/pkg/pipeline"
)

// One-shot similarity sweep. Intended for cron or manual runs; the server
// binary runs the same sweep on its own interval.
func main() {
	err := run()
	if err != nil {
		panic(err)
	}
}

func run() error {
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
	store, err := initStore(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize graph store: %w", err)
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to close graph store")
		}
	}()

	sweeper := pipeline.NewSweeper(store, &cfg.Pipeline, logger)

	report, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	logger.Info().
		Str("sweep_id", report.SweepID).
		Int("scanned", report.Scanned).
		Int("updated", report.Updated).
		Int("pruned", report.Pruned).
		Int("failures", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("Sweep finished")

	for _, failure := range report.Failures {
		logger.Warn().
			Err(failure.Err).
			Str("article_id", failure.ArticleID).
			Msg("Article re-scoring failed")
	}

	return nil
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
