// Package rag orchestrates the query-time pipeline: conversation-aware
// query construction, retrieval, answer synthesis and source attribution.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"impact-rag/internal/config"
	"impact-rag/internal/embedding"
	"impact-rag/internal/models"
	"impact-rag/internal/store"
	"impact-rag/internal/vectorindex"
)

// Generator produces a completion for a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service answers questions over the indexed corpus. Construct one at
// process start and share it across requests; all state lives in the
// injected collaborators.
type Service struct {
	embedder  embeddings.Embedder
	index     *vectorindex.Index
	generator Generator
	store     store.Store
	cfg       *config.Config
}

func NewService(embedder embeddings.Embedder, index *vectorindex.Index, generator Generator, st store.Store, cfg *config.Config) *Service {
	return &Service{
		embedder:  embedder,
		index:     index,
		generator: generator,
		store:     st,
		cfg:       cfg,
	}
}

// Chat answers question for userID, carrying conversation context when
// conversationID is non-empty, and persists the new (user, assistant) turn
// pair. A conversation that does not exist or belongs to someone else
// surfaces store.ErrNotFound.
func (s *Service) Chat(ctx context.Context, userID, question, conversationID string) (*models.ChatResponse, error) {
	var history []models.Turn
	if conversationID != "" {
		var err error
		history, err = s.store.Load(ctx, conversationID, userID)
		if err != nil {
			return nil, err
		}
	}

	query := BuildQuery(history, s.cfg.RAG.HistoryWindow, question)

	queryEmbedding, err := embedding.EmbedQuery(ctx, s.embedder, query)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Query(ctx, queryEmbedding, s.cfg.RAG.TopK)
	if err != nil {
		return nil, err
	}

	passages := make([]models.Chunk, len(results))
	for i, r := range results {
		passages[i] = r.Chunk
	}

	answer, err := s.Answer(ctx, query, passages)
	if err != nil {
		return nil, err
	}

	sources := models.AggregateSources(passages)

	now := time.Now().UTC()
	turns := []models.Turn{
		{Role: models.RoleUser, Content: question, CreatedAt: now},
		{Role: models.RoleAssistant, Content: answer, Sources: sources, CreatedAt: now},
	}
	conversationID, err = s.store.Upsert(ctx, userID, turns, conversationID)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("conversation_id", conversationID).
		Int("passages", len(passages)).
		Int("sources", len(sources)).
		Msg("answered question")

	return &models.ChatResponse{
		Answer:         answer,
		Sources:        sources,
		ConversationID: conversationID,
	}, nil
}

// Ask answers a one-off question with no conversation persistence. Used by
// the CLI query mode.
func (s *Service) Ask(ctx context.Context, question string) (*models.ChatResponse, error) {
	queryEmbedding, err := embedding.EmbedQuery(ctx, s.embedder, question)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Query(ctx, queryEmbedding, s.cfg.RAG.TopK)
	if err != nil {
		return nil, err
	}

	passages := make([]models.Chunk, len(results))
	for i, r := range results {
		passages[i] = r.Chunk
	}

	answer, err := s.Answer(ctx, question, passages)
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Answer:  answer,
		Sources: models.AggregateSources(passages),
	}, nil
}

// BuildQuery renders the last window turns in chronological order and
// appends the new question, producing the single string used for both
// retrieval and generation. Empty history yields the bare question.
func BuildQuery(history []models.Turn, window int, question string) string {
	if window <= 0 {
		window = 6
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) == 0 {
		return question
	}

	var sb strings.Builder
	for _, turn := range history {
		label := models.UserLabel
		if turn.Role == models.RoleAssistant {
			label = models.AssistantLabel
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", label, turn.Content))
	}
	sb.WriteString(question)
	return sb.String()
}
