package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewExam(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	collectionID := uuid.New()

	exam, err := NewExam(userID, collectionID, ExamModeImmediate, 5, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if exam.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if exam.Status != ExamStatusPending {
		t.Errorf("Expected status %s, got %s", ExamStatusPending, exam.Status)
	}
	if exam.TotalWords != 8 {
		t.Errorf("Expected total words 8, got %d", exam.TotalWords)
	}
	if exam.SpellingWordCount != 5 {
		t.Errorf("Expected spelling count 5, got %d", exam.SpellingWordCount)
	}
	if exam.TranslationSentenceCount != 3 {
		t.Errorf("Expected translation count 3, got %d", exam.TranslationSentenceCount)
	}
	if exam.GenerationStartedAt != nil {
		t.Error("Expected no generation claim on a fresh exam")
	}

	// Invalid inputs
	if _, err := NewExam(uuid.Nil, collectionID, ExamModeImmediate, 5, 3); !errors.Is(err, ErrExamUserIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrExamUserIDEmpty, err)
	}
	if _, err := NewExam(userID, uuid.Nil, ExamModeImmediate, 5, 3); !errors.Is(err, ErrExamCollectionIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrExamCollectionIDEmpty, err)
	}
	if _, err := NewExam(userID, collectionID, ExamMode("weekly"), 5, 3); !errors.Is(err, ErrExamInvalidMode) {
		t.Errorf("Expected error %v, got %v", ErrExamInvalidMode, err)
	}
	if _, err := NewExam(userID, collectionID, ExamModeDeferred, -1, 3); !errors.Is(err, ErrExamNegativeCounts) {
		t.Errorf("Expected error %v, got %v", ErrExamNegativeCounts, err)
	}
	if _, err := NewExam(userID, collectionID, ExamModeDeferred, 0, 0); !errors.Is(err, ErrExamNoSections) {
		t.Errorf("Expected error %v, got %v", ErrExamNoSections, err)
	}
}

func TestExamStatusTransitions(t *testing.T) {
	t.Parallel()
	all := []ExamStatus{
		ExamStatusPending,
		ExamStatusGenerated,
		ExamStatusGrading,
		ExamStatusCompleted,
		ExamStatusFailed,
	}

	allowed := map[ExamStatus]map[ExamStatus]bool{
		ExamStatusPending:   {ExamStatusGenerated: true, ExamStatusFailed: true},
		ExamStatusGenerated: {ExamStatusGrading: true},
		ExamStatusGrading:   {ExamStatusCompleted: true, ExamStatusFailed: true},
		ExamStatusCompleted: {},
		ExamStatusFailed:    {},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}

	if !ExamStatusCompleted.IsTerminal() || !ExamStatusFailed.IsTerminal() {
		t.Error("Expected completed and failed to be terminal")
	}
	if ExamStatusPending.IsTerminal() || ExamStatusGenerated.IsTerminal() || ExamStatusGrading.IsTerminal() {
		t.Error("Expected pending, generated, and grading to be non-terminal")
	}
	if ExamStatus("draft").IsValid() {
		t.Error("Expected unknown status to be invalid")
	}
}

func TestExamTransitionTo(t *testing.T) {
	t.Parallel()
	exam, err := NewExam(uuid.New(), uuid.New(), ExamModeDeferred, 2, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Rejected transitions leave the state untouched.
	if err := exam.TransitionTo(ExamStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected error %v, got %v", ErrInvalidTransition, err)
	}
	if exam.Status != ExamStatusPending {
		t.Errorf("Expected status unchanged at %s, got %s", ExamStatusPending, exam.Status)
	}

	if err := exam.TransitionTo(ExamStatus("bogus")); !errors.Is(err, ErrInvalidExamStatus) {
		t.Errorf("Expected error %v, got %v", ErrInvalidExamStatus, err)
	}

	// Walk the happy path end to end.
	for _, next := range []ExamStatus{ExamStatusGenerated, ExamStatusGrading, ExamStatusCompleted} {
		if err := exam.TransitionTo(next); err != nil {
			t.Fatalf("Expected transition to %s to succeed, got %v", next, err)
		}
		if exam.Status != next {
			t.Fatalf("Expected status %s, got %s", next, exam.Status)
		}
	}

	// Terminal states admit nothing further.
	if err := exam.TransitionTo(ExamStatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected error %v, got %v", ErrInvalidTransition, err)
	}
}

func TestNewSpellingSection(t *testing.T) {
	t.Parallel()
	examID := uuid.New()
	entryID := uuid.New()
	itemID := uuid.New()

	section, err := NewSpellingSection(examID, entryID, itemID, "a sweet red fruit", "apple")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !section.ItemID.Valid || section.ItemID.UUID != itemID {
		t.Errorf("Expected item ID %s, got %v", itemID, section.ItemID)
	}

	// A nil item ID records an unlinked snapshot.
	section, err = NewSpellingSection(examID, entryID, uuid.Nil, "a sweet red fruit", "apple")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if section.ItemID.Valid {
		t.Error("Expected invalid NullUUID for nil item ID")
	}

	if _, err := NewSpellingSection(examID, entryID, itemID, "", "apple"); !errors.Is(err, ErrSectionPromptEmpty) {
		t.Errorf("Expected error %v, got %v", ErrSectionPromptEmpty, err)
	}
	if _, err := NewSpellingSection(examID, entryID, itemID, "prompt", ""); !errors.Is(err, ErrSectionAnswerEmpty) {
		t.Errorf("Expected error %v, got %v", ErrSectionAnswerEmpty, err)
	}
}

func TestNewTranslationSection(t *testing.T) {
	t.Parallel()
	examID := uuid.New()
	itemIDs := []uuid.UUID{uuid.New(), uuid.New()}

	section, err := NewTranslationSection(examID, "sentence_1", "I ate an apple.", itemIDs)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if section.SentenceKey != "sentence_1" {
		t.Errorf("Expected sentence key %q, got %q", "sentence_1", section.SentenceKey)
	}
	if len(section.ItemIDs) != 2 {
		t.Errorf("Expected 2 item IDs, got %d", len(section.ItemIDs))
	}

	if _, err := NewTranslationSection(examID, "sentence_1", "", itemIDs); !errors.Is(err, ErrSectionPromptEmpty) {
		t.Errorf("Expected error %v, got %v", ErrSectionPromptEmpty, err)
	}
}

func TestExamAnswersValidate(t *testing.T) {
	t.Parallel()
	empty := &ExamAnswers{}
	if err := empty.Validate(); !errors.Is(err, ErrAnswersEmpty) {
		t.Errorf("Expected error %v, got %v", ErrAnswersEmpty, err)
	}

	missingID := &ExamAnswers{
		Spelling: []SectionAnswer{{SectionID: uuid.Nil, Answer: "apple"}},
	}
	if err := missingID.Validate(); !errors.Is(err, ErrAnswerSectionIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrAnswerSectionIDEmpty, err)
	}

	valid := &ExamAnswers{
		Spelling:    []SectionAnswer{{SectionID: uuid.New(), Answer: "apple"}},
		Translation: []SectionAnswer{{SectionID: uuid.New(), Answer: "Ich habe einen Apfel gegessen."}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
