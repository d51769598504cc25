package pipeline

import "time"

type Config struct {
	MaxConcurrency int `env:"PIPELINE_MAX_CONCURRENCY,default=8" validate:"required,gt=0"`

	// MinScore is the similarity threshold for duplicate flagging. A candidate
	// scoring exactly MinScore counts as a duplicate.
	MinScore      float64 `env:"PIPELINE_MIN_SCORE,default=0.9" validate:"required,gt=0,lte=1"`
	MaxCandidates int     `env:"PIPELINE_MAX_CANDIDATES,default=5" validate:"required,gt=0"`

	// ReviewWindowDays escalates fresh duplicates to human review. A duplicate
	// of an article published within this window is classified needs_review
	// instead of duplicate_flagged, when review alerts are enabled.
	ReviewWindowDays int  `env:"PIPELINE_REVIEW_WINDOW_DAYS,default=7" validate:"gte=0"`
	ReviewAlerts     bool `env:"PIPELINE_REVIEW_ALERTS,default=false"`

	EmbedTimeout time.Duration `env:"PIPELINE_EMBED_TIMEOUT,default=30s"`
	GraphTimeout time.Duration `env:"PIPELINE_GRAPH_TIMEOUT,default=30s"`

	SweepInterval time.Duration `env:"PIPELINE_SWEEP_INTERVAL,default=6h"`
}
