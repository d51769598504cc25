package news

import (
	"sort"
	"time"
)

// Article is the canonical record of one ingested Telegram post.
type Article struct {
	// TelegramMessageID is the globally unique identity key. Re-ingesting
	// the same id merges into the existing node, it never creates a second one.
	TelegramMessageID string
	ChannelID         string

	RawText     string
	Title       string
	Summary     string
	URL         string
	MediaType   string
	MediaFileID string

	ForwardedFrom string

	Embedding []float32
	Topics    []string
	Tags      []string
	Entities  []Entity
	CTAText   string
	CTALink   string

	TopicDecisionRequired bool

	Status Status

	PublishedAt *time.Time
	IngestedAt  *time.Time
}

// EntityType classifies a mentioned entity.
type EntityType string

const (
	EntityPerson     EntityType = "person"
	EntityCompany    EntityType = "company"
	EntityProject    EntityType = "project"
	EntityTechnology EntityType = "technology"
	EntityOther      EntityType = "other"
)

// ParseEntityType maps a free-form type label onto the enum, defaulting to
// other for anything unrecognized.
func ParseEntityType(s string) EntityType {
	switch EntityType(normalizeKey(s)) {
	case EntityPerson:
		return EntityPerson
	case EntityCompany:
		return EntityCompany
	case EntityProject:
		return EntityProject
	case EntityTechnology:
		return EntityTechnology
	default:
		return EntityOther
	}
}

// Entity is a canonical named entity. Merge key is the case-insensitive
// name; aliases accumulate across ingests rather than overwrite.
type Entity struct {
	Name    string
	Type    EntityType
	Aliases []string
	// Context optionally carries the mention context for the MENTIONS edge.
	Context string
}

// Channel is the source identity of a Telegram channel. Merge key is the id.
type Channel struct {
	ID       string
	Username string
	Title    string
}

// SimilarityMatch is one duplicate-detection candidate.
type SimilarityMatch struct {
	ArticleID   string
	Title       string
	URL         string
	Score       float64
	PublishedAt time.Time
}

// SortMatches orders candidates by descending score. Equal scores order by
// more recent publication first: fresher duplicates are more actionable for
// editors.
func SortMatches(matches []SimilarityMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].PublishedAt.After(matches[j].PublishedAt)
	})
}
