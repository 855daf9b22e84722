package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"impact-rag/internal/config"
	"impact-rag/internal/retry"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrUnavailable marks an embedding backend failure that survived the
// retry budget. Callers decide whether to abort ingestion or skip.
var ErrUnavailable = errors.New("embedding backend unavailable")

const callTimeout = 30 * time.Second

// NewEmbedder creates an embedder over an OpenAI-compatible endpoint.
func NewEmbedder(llmCfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmCfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmCfg.Key, "Bearer ")),
		openai.WithModel(llmCfg.Model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

// NewOllamaEmbedder creates an embedder over a local Ollama server.
func NewOllamaEmbedder(llmCfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(llmCfg.BaseURL),
		ollama.WithModel(llmCfg.Model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

// New picks the embedder implementation from config.
func New(llmCfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	if llmCfg.Provider == "ollama" {
		return NewOllamaEmbedder(llmCfg)
	}
	return NewEmbedder(llmCfg)
}

// EmbedTexts embeds texts in batches of batchSize, preserving input order.
// Each batch call is retried with bounded backoff; on exhaustion the error
// wraps ErrUnavailable.
func EmbedTexts(ctx context.Context, embedder embeddings.Embedder, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 32
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch := texts[start:end]

		var batchVectors [][]float32
		err := retry.Default.Do(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, callTimeout)
			defer cancel()

			var embedErr error
			batchVectors, embedErr = embedder.EmbedDocuments(callCtx, batch)
			return embedErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(batchVectors), len(batch))
		}
		vectors = append(vectors, batchVectors...)
	}

	log.Debug().Int("texts", len(texts)).Int("batch_size", batchSize).Msg("embedded texts")
	return vectors, nil
}

// EmbedQuery embeds a single retrieval query with the same retry policy.
func EmbedQuery(ctx context.Context, embedder embeddings.Embedder, query string) ([]float32, error) {
	var vector []float32
	err := retry.Default.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		var embedErr error
		vector, embedErr = embedder.EmbedQuery(callCtx, query)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return vector, nil
}
