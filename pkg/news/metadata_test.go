package news

import (
	"reflect"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	raw := []byte(`{
		"title": "Google launches X",
		"summary": "A new agent platform.",
		"topics": ["agentic_ai"],
		"topicDecisionRequired": false,
		"tags": ["google", "agents"],
		"entities": [{"name": "Google", "entityType": "company"}],
		"ctaText": "Try it",
		"ctaLink": "example.com/x"
	}`)

	m, err := ParseMetadata(raw)
	if err != nil {
		t.Fatalf("ParseMetadata() error = %v", err)
	}
	if m.Title != "Google launches X" {
		t.Errorf("title = %q", m.Title)
	}
	if len(m.Entities) != 1 || m.Entities[0].Name != "Google" {
		t.Errorf("entities = %+v", m.Entities)
	}
}

func TestParseMetadata_MissingEntityName(t *testing.T) {
	raw := []byte(`{"title": "x", "entities": [{"entityType": "company"}]}`)
	if _, err := ParseMetadata(raw); err == nil {
		t.Fatal("expected validation error for entity without name")
	}
}

func TestMetadata_Normalize_TopicRemap(t *testing.T) {
	m := &Metadata{
		Title:  "t",
		Topics: []string{"fine_tuning", "Fine_Tuning_And_Customization", "cooking"},
	}
	m.Normalize("some text")

	want := []string{"fine_tuning_and_customization"}
	if !reflect.DeepEqual(m.Topics, want) {
		t.Errorf("topics = %v, want %v", m.Topics, want)
	}
	if m.TopicDecisionRequired {
		t.Error("decision flag raised although a topic survived")
	}
}

func TestMetadata_Normalize_AllTopicsDiscarded(t *testing.T) {
	m := &Metadata{Title: "t", Topics: []string{"cooking", "gardening"}}
	m.Normalize("some text")

	if len(m.Topics) != 0 {
		t.Errorf("topics = %v, want empty", m.Topics)
	}
	if !m.TopicDecisionRequired {
		t.Error("decision flag should be raised when every topic is discarded")
	}
}

func TestMetadata_Normalize_TitleFallback(t *testing.T) {
	m := &Metadata{}
	m.Normalize("Google launches X. More details inside.\nSecond line.")

	if m.Title != "Google launches X" {
		t.Errorf("title fallback = %q", m.Title)
	}
}

func TestMetadata_Normalize_Dedupe(t *testing.T) {
	m := &Metadata{
		Title:    "t",
		Tags:     []string{"AI", "ai", " agents ", "agents"},
		Entities: []MetadataEntity{{Name: "Google"}, {Name: "google"}, {Name: " "}},
	}
	m.Normalize("text")

	if !reflect.DeepEqual(m.Tags, []string{"ai", "agents"}) {
		t.Errorf("tags = %v", m.Tags)
	}
	if len(m.Entities) != 1 {
		t.Errorf("entities = %+v, want one", m.Entities)
	}
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com/x", "https://example.com/x"},
		{"https://example.com/x", "https://example.com/x"},
		{"", ""},
		{"http://", ""},
	}

	for _, tt := range tests {
		if got := NormalizeLink(tt.in); got != tt.want {
			t.Errorf("NormalizeLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first sentence", "Short headline. The rest.", "Short headline"},
		{"first line", "Line one\nLine two", "Line one"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromText(tt.in); got != tt.want {
				t.Errorf("TitleFromText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
