// Package generation defines the boundary between the application core and
// the external LLM content service. The core depends only on these
// interfaces; the concrete client lives in platform/gemini.
package generation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// EntrySnapshot is the frozen view of one review item's dictionary entry
// handed to the content generator. Prompts and answers produced from it are
// immune to later edits of the underlying entry.
type EntrySnapshot struct {
	EntryID uuid.UUID
	ItemID  uuid.UUID
	Word    string
	Meaning string
}

// SpellingPrompt is one generated spelling question: the meaning as prompt,
// the word form as expected answer.
type SpellingPrompt struct {
	EntryID uuid.UUID
	ItemID  uuid.UUID
	Prompt  string
	Answer  string
}

// GeneratedSentence is one translation sentence exercising a subset of the
// snapshot words.
type GeneratedSentence struct {
	Key       string
	Sentence  string
	WordsUsed []string
}

// ExamContent is the full output of a successful generation. The contract
// is exact shape or explicit failure: len(Spelling) must equal the requested
// spelling count and len(Sentences) the requested translation count, never a
// silently short result.
type ExamContent struct {
	Spelling  []SpellingPrompt
	Sentences []GeneratedSentence
}

// ExamContentGenerator produces exam content from entry snapshots.
type ExamContentGenerator interface {
	// GenerateExamContent builds spelling prompts for the first
	// spellingCount snapshots and translationCount sentences over the
	// remainder. Returns an error (see errors.go) rather than a short or
	// over-long result.
	GenerateExamContent(ctx context.Context, snapshots []EntrySnapshot, spellingCount, translationCount int) (*ExamContent, error)
}

// EntryContentGenerator produces the structured content payload for a new
// dictionary entry during ingestion.
type EntryContentGenerator interface {
	// GenerateEntryContent returns the JSON content payload (meaning,
	// phonetics, example sentences) for a word surface form.
	GenerateEntryContent(ctx context.Context, word string) (json.RawMessage, error)
}

// TranslationGradingRequest is one translated sentence to judge.
type TranslationGradingRequest struct {
	Sentence        string
	RequiredWords   []string
	UserTranslation string
}

// TranslationGradingResult is the judge's verdict for one sentence.
type TranslationGradingResult struct {
	Correct  bool
	Feedback string
}

// TranslationGrader judges user translations against the source sentence
// and the words the sentence was generated to exercise.
type TranslationGrader interface {
	GradeTranslation(ctx context.Context, req TranslationGradingRequest) (TranslationGradingResult, error)
}
