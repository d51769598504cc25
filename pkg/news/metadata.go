package news

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/contentlab/newsgraph/pkg/lib"
)

// Metadata is the JSON contract produced by the LLM collaborator and
// consumed by the upsert engine. It must be validated and normalized before
// anything is persisted.
type Metadata struct {
	Title                 string           `json:"title"`
	Summary               string           `json:"summary"`
	Topics                []string         `json:"topics"`
	TopicDecisionRequired bool             `json:"topicDecisionRequired"`
	Tags                  []string         `json:"tags"`
	Entities              []MetadataEntity `json:"entities" validate:"dive"`
	CTAText               string           `json:"ctaText"`
	CTALink               string           `json:"ctaLink"`
}

type MetadataEntity struct {
	Name       string   `json:"name" validate:"required"`
	EntityType string   `json:"entityType"`
	Aliases    []string `json:"aliases"`
	Context    string   `json:"context"`
}

// ParseMetadata decodes and validates the raw contract payload.
func ParseMetadata(raw []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := lib.ValidateStruct(&m); err != nil {
		return nil, fmt.Errorf("validate metadata: %w", err)
	}
	return &m, nil
}

// Normalize applies the documented fallback rules in place:
//   - missing title falls back to the first clause of the article text
//   - unknown topics are remapped onto the taxonomy or discarded
//   - topics, tags and entities are deduplicated by lowercase value
//   - ctaLink is normalized to a URL with a scheme
//
// When every topic is discarded and none were flagged for decision, the
// decision flag is raised so the article lands in review instead of being
// silently ingested without topics.
func (m *Metadata) Normalize(articleText string) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		m.Title = TitleFromText(articleText)
	}

	hadTopics := len(m.Topics) > 0
	m.Topics = normalizeTopics(m.Topics)
	if hadTopics && len(m.Topics) == 0 {
		m.TopicDecisionRequired = true
	}

	m.Tags = dedupeLower(m.Tags)
	m.Entities = dedupeEntities(m.Entities)
	m.CTALink = NormalizeLink(m.CTALink)
}

// ToEntities converts the contract entities into domain entities.
func (m *Metadata) ToEntities() []Entity {
	out := make([]Entity, 0, len(m.Entities))
	for _, e := range m.Entities {
		out = append(out, Entity{
			Name:    strings.TrimSpace(e.Name),
			Type:    ParseEntityType(e.EntityType),
			Aliases: dedupeLower(e.Aliases),
			Context: strings.TrimSpace(e.Context),
		})
	}
	return out
}

// TitleFromText derives a safe default title from the first clause of the
// article text.
func TitleFromText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if i := strings.IndexAny(text, "\n"); i > 0 {
		text = text[:i]
	}
	if i := strings.Index(text, ". "); i > 0 {
		text = text[:i]
	}

	const maxTitle = 80
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > maxTitle {
		return string(runes[:maxTitle])
	}
	return string(runes)
}

// NormalizeLink coerces a CTA link to a URL with a scheme. A bare domain
// gets https prefixed; anything unparseable is dropped.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	if !strings.Contains(link, "://") {
		link = "https://" + link
	}

	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

func normalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, raw := range topics {
		topic, ok := RemapTopic(raw)
		if !ok {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	return out
}

func dedupeLower(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func dedupeEntities(entities []MetadataEntity) []MetadataEntity {
	seen := make(map[string]struct{}, len(entities))
	out := make([]MetadataEntity, 0, len(entities))
	for _, e := range entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		e.Name = name
		out = append(out, e)
	}
	return out
}
