package news

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// CanonicalTopics is the fixed topic taxonomy. An article's topics may only
// ever contain values from this list; anything else is remapped or discarded
// before it reaches the graph.
var CanonicalTopics = []string{
	"agentic_ai",
	"frontier_models",
	"fine_tuning_and_customization",
	"multimodal_models",
	"image_generation",
	"video_generation",
	"speech_and_audio",
	"ai_infrastructure",
	"developer_tools",
	"ai_policy_and_safety",
	"industry_news",
}

// IsCanonicalTopic reports whether the label (after normalization) is part
// of the taxonomy.
func IsCanonicalTopic(label string) bool {
	label = normalizeKey(label)
	for _, t := range CanonicalTopics {
		if t == label {
			return true
		}
	}
	return false
}

// minRemapLength guards the fuzzy matcher against remapping labels so short
// they would be subsequences of half the taxonomy.
const minRemapLength = 4

// RemapTopic maps a topic label onto the canonical taxonomy. Exact matches
// pass through; close variants (e.g. "fine_tuning") are remapped to the
// nearest canonical label; everything else is discarded.
func RemapTopic(label string) (string, bool) {
	label = normalizeKey(label)
	if label == "" {
		return "", false
	}
	if IsCanonicalTopic(label) {
		return label, true
	}
	if len(label) < minRemapLength {
		return "", false
	}

	best := ""
	bestRank := -1
	for _, topic := range CanonicalTopics {
		rank := fuzzy.RankMatchNormalizedFold(label, topic)
		if rank < 0 {
			continue
		}
		if bestRank < 0 || rank < bestRank {
			best = topic
			bestRank = rank
		}
	}
	if bestRank < 0 {
		return "", false
	}
	return best, true
}

// MatchAlias reports whether name matches the canonical name or any alias of
// an entity, case-insensitively and ignoring separator noise.
func MatchAlias(name string, entity Entity) bool {
	name = normalizeKey(name)
	if name == normalizeKey(entity.Name) {
		return true
	}
	for _, alias := range entity.Aliases {
		if name == normalizeKey(alias) {
			return true
		}
	}
	return false
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
