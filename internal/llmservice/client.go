package llmservice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"docchat/internal/config"
)

// NewChatModel constructs the generative model client. The API key comes
// from the environment, never from the config file.
func NewChatModel(ctx context.Context, cfg *config.ChatModelConfig) (llms.Model, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing chat model API key in env %s", cfg.APIKeyEnv)
	}
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(key),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return model, nil
}

// GenerateWithDocument sends one multimodal request carrying the prompt
// text and the raw PDF bytes inline, and returns the first candidate's
// text.
func GenerateWithDocument(ctx context.Context, model llms.Model, cfg *config.ChatModelConfig, prompt string, pdfBytes []byte) (string, error) {
	log.Debug().Int("prompt_len", len(prompt)).Int("pdf_bytes", len(pdfBytes)).Msg("Generating content")

	msg := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(prompt),
			llms.BinaryPart("application/pdf", pdfBytes),
		},
	}

	resp, err := model.GenerateContent(ctx, []llms.MessageContent{msg},
		llms.WithTemperature(cfg.Temperature),
		llms.WithTopP(cfg.TopP),
		llms.WithTopK(cfg.TopK),
		llms.WithMaxTokens(cfg.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", errors.New("empty model response")
	}
	return resp.Choices[0].Content, nil
}
