package llmservice

import (
	"context"
	"fmt"
	"strings"

	"impact-rag/internal/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client wraps a chat completion backend behind a single-prompt call.
type Client struct {
	llm         llms.Model
	temperature float64
}

// NewClient builds the inference backend from config. OpenRouter and any
// other OpenAI-compatible endpoint go through the openai provider.
func NewClient(llmCfg *config.LLMConfig) (*Client, error) {
	var (
		llm llms.Model
		err error
	)
	if llmCfg.Provider == "ollama" {
		llm, err = ollama.New(
			ollama.WithServerURL(llmCfg.BaseURL),
			ollama.WithModel(llmCfg.Model),
		)
	} else {
		llm, err = openai.New(
			openai.WithBaseURL(llmCfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmCfg.Key, "Bearer ")),
			openai.WithModel(llmCfg.Model),
		)
	}
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm, temperature: 0.1}, nil
}

// Generate sends a single human prompt and returns the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return res.Choices[0].Content, nil
}
