package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mquell/vocab-api/internal/generation"
)

// examResponseSchema is the JSON shape the exam prompt asks the model for.
type examResponseSchema struct {
	Spelling []struct {
		Word   string `json:"word"`
		Prompt string `json:"prompt"`
	} `json:"spelling"`
	Sentences []struct {
		Sentence  string   `json:"sentence"`
		WordsUsed []string `json:"words_used"`
	} `json:"sentences"`
}

type examPromptData struct {
	SpellingWords    []generation.EntrySnapshot
	TranslationWords []generation.EntrySnapshot
	SentenceCount    int
}

// Ensure Client implements generation.ExamContentGenerator
var _ generation.ExamContentGenerator = (*Client)(nil)

// GenerateExamContent implements generation.ExamContentGenerator.
// The first spellingCount snapshots become spelling prompts and the
// remainder feed the translation sentences. The response is accepted only
// when both counts match exactly; anything short, long, or referencing
// unknown words is an ErrShapeMismatch.
func (c *Client) GenerateExamContent(
	ctx context.Context,
	snapshots []generation.EntrySnapshot,
	spellingCount, translationCount int,
) (*generation.ExamContent, error) {
	if spellingCount < 0 || translationCount < 0 || spellingCount+translationCount == 0 {
		return nil, fmt.Errorf("%w: non-positive section counts", generation.ErrInvalidConfig)
	}
	if len(snapshots) < spellingCount {
		return nil, fmt.Errorf("%w: %d snapshots for %d spelling prompts",
			generation.ErrShapeMismatch, len(snapshots), spellingCount)
	}

	spellingWords := snapshots[:spellingCount]
	translationWords := snapshots[spellingCount:]
	if translationCount > 0 && len(translationWords) == 0 {
		return nil, fmt.Errorf("%w: no snapshots left for translation sentences",
			generation.ErrShapeMismatch)
	}

	prompt, err := renderPrompt(examPrompt, examPromptData{
		SpellingWords:    spellingWords,
		TranslationWords: translationWords,
		SentenceCount:    translationCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render exam prompt: %w", err)
	}

	c.logger.InfoContext(ctx, "generating exam content",
		"spelling_count", spellingCount,
		"translation_count", translationCount,
		"snapshot_count", len(snapshots))

	text, err := c.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var resp examResponseSchema
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse exam response: %v",
			generation.ErrInvalidResponse, err)
	}

	return c.buildExamContent(&resp, spellingWords, translationWords, translationCount)
}

// buildExamContent shape-checks the parsed response against the request and
// maps it back onto the entry snapshots.
func (c *Client) buildExamContent(
	resp *examResponseSchema,
	spellingWords, translationWords []generation.EntrySnapshot,
	translationCount int,
) (*generation.ExamContent, error) {
	if len(resp.Spelling) != len(spellingWords) {
		return nil, fmt.Errorf("%w: requested %d spelling prompts, got %d",
			generation.ErrShapeMismatch, len(spellingWords), len(resp.Spelling))
	}
	if len(resp.Sentences) != translationCount {
		return nil, fmt.Errorf("%w: requested %d sentences, got %d",
			generation.ErrShapeMismatch, translationCount, len(resp.Sentences))
	}

	bySpellingWord := make(map[string]generation.EntrySnapshot, len(spellingWords))
	for _, snap := range spellingWords {
		bySpellingWord[strings.ToLower(snap.Word)] = snap
	}
	byTranslationWord := make(map[string]generation.EntrySnapshot, len(translationWords))
	for _, snap := range translationWords {
		byTranslationWord[strings.ToLower(snap.Word)] = snap
	}

	content := &generation.ExamContent{
		Spelling:  make([]generation.SpellingPrompt, 0, len(resp.Spelling)),
		Sentences: make([]generation.GeneratedSentence, 0, len(resp.Sentences)),
	}

	seen := make(map[string]bool, len(resp.Spelling))
	for i, q := range resp.Spelling {
		key := strings.ToLower(strings.TrimSpace(q.Word))
		snap, ok := bySpellingWord[key]
		if !ok {
			return nil, fmt.Errorf("%w: spelling prompt %d for unknown word %q",
				generation.ErrShapeMismatch, i, q.Word)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate spelling prompt for %q",
				generation.ErrShapeMismatch, q.Word)
		}
		seen[key] = true
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, fmt.Errorf("%w: blank prompt for word %q",
				generation.ErrInvalidResponse, q.Word)
		}
		content.Spelling = append(content.Spelling, generation.SpellingPrompt{
			EntryID: snap.EntryID,
			ItemID:  snap.ItemID,
			Prompt:  q.Prompt,
			Answer:  snap.Word,
		})
	}

	covered := make(map[string]bool, len(translationWords))
	for i, s := range resp.Sentences {
		if strings.TrimSpace(s.Sentence) == "" {
			return nil, fmt.Errorf("%w: blank sentence at index %d",
				generation.ErrInvalidResponse, i)
		}
		if len(s.WordsUsed) == 0 {
			return nil, fmt.Errorf("%w: sentence %d uses no requested words",
				generation.ErrShapeMismatch, i)
		}
		used := make([]string, 0, len(s.WordsUsed))
		for _, w := range s.WordsUsed {
			key := strings.ToLower(strings.TrimSpace(w))
			snap, ok := byTranslationWord[key]
			if !ok {
				return nil, fmt.Errorf("%w: sentence %d uses unknown word %q",
					generation.ErrShapeMismatch, i, w)
			}
			covered[key] = true
			used = append(used, snap.Word)
		}
		content.Sentences = append(content.Sentences, generation.GeneratedSentence{
			Key:       fmt.Sprintf("sentence_%d", i+1),
			Sentence:  s.Sentence,
			WordsUsed: used,
		})
	}

	if translationCount > 0 && len(covered) != len(byTranslationWord) {
		return nil, fmt.Errorf("%w: sentences cover %d of %d translation words",
			generation.ErrShapeMismatch, len(covered), len(byTranslationWord))
	}

	return content, nil
}
