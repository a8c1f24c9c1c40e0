package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/generation"
)

type entryPromptData struct {
	Word string
}

// Ensure Client implements generation.EntryContentGenerator
var _ generation.EntryContentGenerator = (*Client)(nil)

// GenerateEntryContent implements generation.EntryContentGenerator.
// Transient failures are retried up to the configured attempt count with
// exponential backoff; permanent failures (safety blocks, malformed JSON)
// abort immediately.
func (c *Client) GenerateEntryContent(ctx context.Context, word string) (json.RawMessage, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("%w: word cannot be empty", generation.ErrInvalidConfig)
	}

	prompt, err := renderPrompt(entryPrompt, entryPromptData{Word: word})
	if err != nil {
		return nil, fmt.Errorf("failed to render entry prompt: %w", err)
	}

	var text string
	err = retry.Do(
		func() error {
			var callErr error
			text, callErr = c.generateJSON(ctx, prompt)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.config.MaxRetries)+1),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, generation.ErrTransientFailure)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WarnContext(ctx, "retrying entry content generation",
				"word", word, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	var content domain.EntryContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return nil, fmt.Errorf("%w: failed to parse entry response: %v",
			generation.ErrInvalidResponse, err)
	}
	if strings.TrimSpace(content.Meaning) == "" {
		return nil, fmt.Errorf("%w: entry content has no meaning", generation.ErrInvalidResponse)
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry content: %w", err)
	}

	c.logger.InfoContext(ctx, "entry content generated", "word", word)
	return payload, nil
}
