package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mquell/vocab-api/internal/generation"
)

type gradingResponseSchema struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// Ensure Client implements generation.TranslationGrader
var _ generation.TranslationGrader = (*Client)(nil)

// GradeTranslation implements generation.TranslationGrader.
// An empty translation fails without a model call.
func (c *Client) GradeTranslation(
	ctx context.Context,
	req generation.TranslationGradingRequest,
) (generation.TranslationGradingResult, error) {
	if strings.TrimSpace(req.Sentence) == "" {
		return generation.TranslationGradingResult{},
			fmt.Errorf("%w: sentence cannot be empty", generation.ErrInvalidConfig)
	}

	if strings.TrimSpace(req.UserTranslation) == "" {
		return generation.TranslationGradingResult{
			Correct:  false,
			Feedback: "No translation was provided.",
		}, nil
	}

	prompt, err := renderPrompt(gradingPrompt, req)
	if err != nil {
		return generation.TranslationGradingResult{},
			fmt.Errorf("failed to render grading prompt: %w", err)
	}

	text, err := c.generateJSON(ctx, prompt)
	if err != nil {
		return generation.TranslationGradingResult{}, err
	}

	var resp gradingResponseSchema
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return generation.TranslationGradingResult{},
			fmt.Errorf("%w: failed to parse grading response: %v",
				generation.ErrInvalidResponse, err)
	}

	return generation.TranslationGradingResult{
		Correct:  resp.Correct,
		Feedback: resp.Feedback,
	}, nil
}
