package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/contentlab/newsgraph/pkg/api"
	"github.com/contentlab/newsgraph/pkg/graph/neo4j"
	"github.com/contentlab/newsgraph/pkg/graph/postgres"
	"github.com/contentlab/newsgraph/pkg/lib"
	"github.com/contentlab/newsgraph/pkg/lib/log"
	"github.com/contentlab/newsgraph/pkg/nlp"
	"github.com/contentlab/newsgraph/pkg/pipeline"
)

type Config struct {
	// GraphBackend selects the graph store implementation.
	GraphBackend string `env:"GRAPH_BACKEND,default=neo4j" validate:"required,oneof=neo4j postgres memory"`

	Neo4j    neo4j.Config    `env:""`
	DB       postgres.Config `env:""`
	API      api.Config      `env:""`
	Log      log.Config      `env:""`
	NLP      nlp.Config      `env:""`
	Pipeline pipeline.Config `env:""`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
