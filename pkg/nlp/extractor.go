package nlp

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/outputparser"
	"github.com/tmc/langchaingo/prompts"

	"github.com/contentlab/newsgraph/pkg/news"
)

//go:embed extract-metadata.md
var extractMetadataPrompt string

// MetadataExtractor turns raw article text into the editorial metadata
// contract. The output is parsed but deliberately NOT normalized here; the
// upsert engine owns validation and fallback rules.
type MetadataExtractor struct {
	model  completionModel
	logger *zerolog.Logger
}

func NewMetadataExtractor(model completionModel, logger *zerolog.Logger) *MetadataExtractor {
	return &MetadataExtractor{model: model, logger: logger}
}

type extractMetadataOutput struct {
	Title                 string                `json:"title" describe:"Short factual headline for the post"`
	Summary               string                `json:"summary" describe:"1-3 sentence plain-text summary"`
	Topics                []string              `json:"topics" describe:"Topics from the allowed list only"`
	TopicDecisionRequired bool                  `json:"topic_decision_required" describe:"True when no allowed topic fits"`
	Tags                  []string              `json:"tags" describe:"3-8 lowercase free-form keywords"`
	Entities              []extractEntityOutput `json:"entities" describe:"Concrete entities the post is about"`
	CTAText               string                `json:"cta_text" describe:"Call-to-action text, empty when none"`
	CTALink               string                `json:"cta_link" describe:"Call-to-action link, empty when none"`
}

type extractEntityOutput struct {
	Name       string   `json:"name" describe:"Canonical entity name"`
	EntityType string   `json:"entity_type" describe:"One of: person, company, project, technology, other"`
	Aliases    []string `json:"aliases" describe:"Well-known alternative names"`
	Context    string   `json:"context" describe:"One short phrase on the entity's role in the post"`
}

func (ex *MetadataExtractor) Extract(ctx context.Context, articleText string) (*news.Metadata, error) {
	template := prompts.NewPromptTemplate(extractMetadataPrompt, []string{
		"allowed_topics",
		"output_format_instructions",
		"article_text",
	})

	parser, err := outputparser.NewDefined(extractMetadataOutput{})
	if err != nil {
		return nil, fmt.Errorf("creating parser: %w", err)
	}

	prompt, err := template.Format(map[string]any{
		"allowed_topics":             strings.Join(news.CanonicalTopics, ", "),
		"output_format_instructions": parser.GetFormatInstructions(),
		"article_text":               articleText,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}

	out, err := ex.model.Call(
		ctx,
		prompt,
		// Note: Fixed temperature of 1 must be applied for gpt-5 models
		llms.WithTemperature(1.0),
	)
	if err != nil {
		logGenerateCompletionError(ex.logger, prompt, err)
		return nil, fmt.Errorf("generate completion: %w", err)
	}

	response, err := parseResponse(parser, out)
	if err != nil {
		ex.logger.Error().
			Err(err).
			Str("prompt", prompt).
			Str("output", out).
			Msg("Error parsing metadata extraction response")
		return nil, fmt.Errorf("parse response: %w", err)
	}

	metadata := &news.Metadata{
		Title:                 response.Title,
		Summary:               response.Summary,
		Topics:                response.Topics,
		TopicDecisionRequired: response.TopicDecisionRequired,
		Tags:                  response.Tags,
		CTAText:               response.CTAText,
		CTALink:               response.CTALink,
	}
	for _, e := range response.Entities {
		metadata.Entities = append(metadata.Entities, news.MetadataEntity{
			Name:       e.Name,
			EntityType: e.EntityType,
			Aliases:    e.Aliases,
			Context:    e.Context,
		})
	}
	return metadata, nil
}

func parseResponse[T any](parser outputparser.Defined[T], response string) (*T, error) {
	// Parser expects backsticks but the output usually doesn't contain them
	wrappedRes := response
	if !strings.HasPrefix(response, "```json") {
		wrappedRes = fmt.Sprintf("```json\n%s\n```", response)
	}
	out, err := parser.Parse(wrappedRes)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return &out, nil
}

func logGenerateCompletionError(logger *zerolog.Logger, prompt string, err error) {
	logger.Error().
		Err(err).
		// Log in base64 for a more compact representation
		Str("prompt_base64", base64.StdEncoding.EncodeToString([]byte(prompt))).
		Int("prompt_bytes", len(prompt)).
		Msg("Error generating completion")
}
