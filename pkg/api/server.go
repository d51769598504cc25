package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/contentlab/newsgraph/pkg/graph"
	"github.com/contentlab/newsgraph/pkg/news"
	"github.com/contentlab/newsgraph/pkg/pipeline"
	"github.com/contentlab/newsgraph/pkg/telegram"
)

// Server exposes the ingest pipeline and graph queries over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	store    graph.Store
	logger   *zerolog.Logger
	http     http.Server
}

func NewServer(
	logger *zerolog.Logger,
	config *Config,
	pipe *pipeline.Pipeline,
	store graph.Store,
) *Server {
	mux := http.NewServeMux()

	server := &Server{
		pipeline: pipe,
		store:    store,
		logger:   logger,
		http: http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler: corsMiddleware(mux, config.CORSOrigin),
		},
	}

	mux.HandleFunc("POST /v1/messages", server.IngestMessage)
	mux.HandleFunc("GET /v1/articles/{id}", server.GetArticle)
	mux.HandleFunc("GET /v1/articles/{id}/similar", server.ListSimilar)
	mux.HandleFunc("GET /v1/digest", server.GetDigest)
	mux.HandleFunc("GET /v1/topics/{topic}/articles", server.ListArticlesByTopic)
	mux.HandleFunc("GET /v1/entities/{name}/articles", server.ListArticlesByEntity)
	mux.HandleFunc("GET /v1/health", server.GetHealth)

	return server
}

func corsMiddleware(next http.Handler, originConfig string) http.Handler {
	origins := strings.Split(originConfig, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestOrigin := r.Header.Get("Origin")

		if len(origins) == 1 && origins[0] == "*" {
			// Allow all origins
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
			// CORS doesn't support multiple origins,
			// so we either set the origin in the header or not at all.
			w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains the in-flight pipeline work before closing the listener.
func (s *Server) Stop() error {
	s.pipeline.StopAndWait()
	return s.http.Close()
}

// IngestMessage runs the full pipeline for one inbound message. With
// ?async=true the message is validated, queued on the worker pool and
// acknowledged immediately.
func (s *Server) IngestMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.badRequest(w, err, "read request body")
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		msg, err := telegram.ParseMessage(body)
		if err != nil {
			s.badRequest(w, err, "parse message")
			return
		}
		if msg.MessageID == 0 {
			s.badRequest(w, fmt.Errorf("message has no id"), "parse message")
			return
		}

		s.pipeline.Enqueue(msg)
		s.serializeResStatus(w, http.StatusAccepted, IngestAcceptedResponse{
			ArticleID: strconv.FormatInt(msg.MessageID, 10),
			Status:    "accepted",
		})
		return
	}

	result, err := s.pipeline.ProcessRaw(r.Context(), body)
	if err != nil {
		if pipeline.Retryable(err) {
			s.writeError(w, http.StatusServiceUnavailable, err, "process message")
			return
		}
		s.badRequest(w, err, "process message")
		return
	}

	s.serializeRes(w, IngestResponse{
		ArticleID:      result.Article.TelegramMessageID,
		Status:         string(result.Article.Status),
		Classification: string(result.Classification),
		Matches:        serializeMatches(result.Matches),
	})
}

func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.store.GetArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err, "get article")
			return
		}
		s.internalError(w, err, "get article")
		return
	}

	s.serializeRes(w, serializeArticle(article))
}

func (s *Server) ListSimilar(w http.ResponseWriter, r *http.Request) {
	edges, err := s.store.SimilarityEdges(r.Context(), r.PathValue("id"))
	if err != nil {
		s.internalError(w, err, "list similarity edges")
		return
	}

	out := make([]SimilarityEdgeResponse, 0, len(edges))
	for _, edge := range edges {
		out = append(out, SimilarityEdgeResponse{
			TargetID:    edge.TargetID,
			Score:       edge.Score,
			LastChecked: edge.LastChecked,
		})
	}
	s.serializeRes(w, out)
}

func (s *Server) GetDigest(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.badRequest(w, fmt.Errorf("invalid days value: %q", raw), "parse days")
			return
		}
		days = parsed
	}

	entries, err := s.store.WeeklyDigest(r.Context(), days)
	if err != nil {
		s.internalError(w, err, "build digest")
		return
	}

	s.serializeRes(w, entries)
}

func (s *Server) ListArticlesByTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	if !news.IsCanonicalTopic(topic) {
		s.badRequest(w, fmt.Errorf("unknown topic: %q", topic), "validate topic")
		return
	}

	articles, err := s.store.ArticlesByTopic(r.Context(), topic)
	if err != nil {
		s.internalError(w, err, "list articles by topic")
		return
	}

	s.serializeRes(w, serializeArticles(articles))
}

func (s *Server) ListArticlesByEntity(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.badRequest(w, fmt.Errorf("invalid days value: %q", raw), "parse days")
			return
		}
		days = parsed
	}

	articles, err := s.store.ArticlesByEntity(r.Context(), r.PathValue("name"), days)
	if err != nil {
		s.internalError(w, err, "list articles by entity")
		return
	}

	s.serializeRes(w, serializeArticles(articles))
}

func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	s.serializeRes(w, map[string]string{"status": "ok"})
}

func (s *Server) serializeRes(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("response write error")
	}
}

func (s *Server) serializeResStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("response write error")
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error, msg string) {
	s.writeError(w, http.StatusBadRequest, err, msg)
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.writeError(w, http.StatusInternalServerError, err, msg)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error, msg string) {
	s.logger.Error().Err(err).Int("status", status).Msg(msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": fmt.Sprintf("%s: %s", msg, err),
	})
}
