package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"impact-rag/internal/models"
	"impact-rag/internal/retry"
)

// GenerationError marks a completion backend failure that survived the
// retry budget. The caller must surface it, never an empty answer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation backend failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const generateTimeout = 60 * time.Second

// Answer concatenates the passages in retrieval order into a context block
// and submits it with the query under the fixed instruction template. The
// template, not this function, is responsible for language, explicit
// citation and the general-knowledge disclaimer.
func (s *Service) Answer(ctx context.Context, query string, passages []models.Chunk) (string, error) {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}
	contextBlock := strings.Join(parts, models.ContextSeparator)

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, contextBlock, query)

	var answer string
	err := retry.Default.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, generateTimeout)
		defer cancel()

		var genErr error
		answer, genErr = s.generator.Generate(callCtx, prompt)
		return genErr
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return strings.TrimSpace(answer), nil
}
