package api

import (
	"time"

	"github.com/contentlab/newsgraph/pkg/news"
)

// IngestAcceptedResponse acknowledges an async ingest before processing.
type IngestAcceptedResponse struct {
	ArticleID string `json:"articleId"`
	Status    string `json:"status"`
}

type IngestResponse struct {
	ArticleID      string          `json:"articleId"`
	Status         string          `json:"status"`
	Classification string          `json:"classification"`
	Matches        []MatchResponse `json:"matches"`
}

type MatchResponse struct {
	ArticleID   string     `json:"articleId"`
	Title       string     `json:"title,omitempty"`
	URL         string     `json:"url,omitempty"`
	Score       float64    `json:"score"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

type SimilarityEdgeResponse struct {
	TargetID    string    `json:"targetId"`
	Score       float64   `json:"score"`
	LastChecked time.Time `json:"lastChecked"`
}

type ArticleResponse struct {
	TelegramMessageID     string         `json:"telegramMessageId"`
	ChannelID             string         `json:"channelId,omitempty"`
	Title                 string         `json:"title"`
	Summary               string         `json:"summary,omitempty"`
	URL                   string         `json:"url,omitempty"`
	MediaType             string         `json:"mediaType,omitempty"`
	ForwardedFrom         string         `json:"forwardedFrom,omitempty"`
	Topics                []string       `json:"topics"`
	Tags                  []string       `json:"tags"`
	Entities              []EntityOutput `json:"entities"`
	CTAText               string         `json:"ctaText,omitempty"`
	CTALink               string         `json:"ctaLink,omitempty"`
	TopicDecisionRequired bool           `json:"topicDecisionRequired"`
	Status                string         `json:"status"`
	PublishedAt           *time.Time     `json:"publishedAt,omitempty"`
	IngestedAt            *time.Time     `json:"ingestedAt,omitempty"`
}

type EntityOutput struct {
	Name       string   `json:"name"`
	EntityType string   `json:"entityType"`
	Aliases    []string `json:"aliases,omitempty"`
}

func serializeArticle(article *news.Article) ArticleResponse {
	out := ArticleResponse{
		TelegramMessageID:     article.TelegramMessageID,
		ChannelID:             article.ChannelID,
		Title:                 article.Title,
		Summary:               article.Summary,
		URL:                   article.URL,
		MediaType:             article.MediaType,
		ForwardedFrom:         article.ForwardedFrom,
		Topics:                article.Topics,
		Tags:                  article.Tags,
		CTAText:               article.CTAText,
		CTALink:               article.CTALink,
		TopicDecisionRequired: article.TopicDecisionRequired,
		Status:                string(article.Status),
		PublishedAt:           article.PublishedAt,
		IngestedAt:            article.IngestedAt,
	}
	for _, entity := range article.Entities {
		out.Entities = append(out.Entities, EntityOutput{
			Name:       entity.Name,
			EntityType: string(entity.Type),
			Aliases:    entity.Aliases,
		})
	}
	return out
}

func serializeArticles(articles []*news.Article) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(articles))
	for _, article := range articles {
		out = append(out, serializeArticle(article))
	}
	return out
}

func serializeMatches(matches []news.SimilarityMatch) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, match := range matches {
		res := MatchResponse{
			ArticleID: match.ArticleID,
			Title:     match.Title,
			URL:       match.URL,
			Score:     match.Score,
		}
		if !match.PublishedAt.IsZero() {
			t := match.PublishedAt
			res.PublishedAt = &t
		}
		out = append(out, res)
	}
	return out
}
