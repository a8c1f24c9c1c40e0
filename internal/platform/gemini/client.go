// Package gemini implements the generation interfaces against Google's
// Gemini API. All prompts request strict JSON output and every response is
// shape-checked before it reaches the application core.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mquell/vocab-api/internal/config"
	"github.com/mquell/vocab-api/internal/generation"
	"google.golang.org/genai"
)

// Client is the shared Gemini API client backing the exam content
// generator, the entry content generator, and the translation grader.
type Client struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Client{
		logger: logger.With(slog.String("component", "gemini_client")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// generateJSON sends a prompt expecting a JSON document back and returns
// the raw response text. Safety blocks and empty responses are permanent
// errors; transport errors are reported as transient so callers can decide
// whether to retry.
func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		c.logger.ErrorContext(ctx, "gemini API call failed", "error", err)
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: blank response text", generation.ErrInvalidResponse)
	}

	return text, nil
}
