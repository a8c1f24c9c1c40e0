package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/events"
	"github.com/mquell/vocab-api/internal/generation"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// GenerationEnqueuer schedules the asynchronous generation step for a
// freshly created exam. The task package provides the implementation; the
// indirection keeps this package free of a dependency on the runner.
type GenerationEnqueuer interface {
	EnqueueExamGeneration(ctx context.Context, examID uuid.UUID) error
}

// ExamDetail is an exam together with its sections.
type ExamDetail struct {
	Exam        *domain.Exam
	Spelling    []*domain.SpellingSection
	Translation []*domain.TranslationSection
}

// ExamService drives the exam lifecycle from creation through generation,
// answer submission, and grading.
type ExamService interface {
	// CreateExam creates a pending exam over the collection and schedules
	// its generation. The collection must hold at least
	// spellingCount+translationCount non-archived items.
	CreateExam(ctx context.Context, userID, collectionID uuid.UUID, mode domain.ExamMode, spellingCount, translationCount int) (*domain.Exam, error)

	// Generate runs the generation step for a pending exam: it claims the
	// exam, calls the content generator, and persists either all sections
	// with the Generated status or zero sections with the Failed status.
	// Exactly one concurrent caller wins the claim; the rest get ErrConflict.
	Generate(ctx context.Context, examID uuid.UUID) error

	// SubmitForGrading stores the user's answer sheet and moves the exam to
	// Grading. Immediate-mode exams are graded before the call returns;
	// deferred-mode exams wait for a later CompleteGrading call.
	SubmitForGrading(ctx context.Context, userID, examID uuid.UUID, answers *domain.ExamAnswers) (*domain.Exam, error)

	// CompleteGrading grades a Grading-state exam from its stored answer
	// sheet, feeds each verdict back into review progress, and completes
	// the exam.
	CompleteGrading(ctx context.Context, examID uuid.UUID) ([]domain.GradingResult, error)

	// GetExam retrieves an exam with its sections.
	GetExam(ctx context.Context, userID, examID uuid.UUID) (*ExamDetail, error)

	// ListExams retrieves a page of the user's exams, newest first.
	ListExams(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Exam, error)

	// DeleteExam removes an exam and its sections. Exams whose grading is
	// in flight cannot be deleted.
	DeleteExam(ctx context.Context, userID, examID uuid.UUID) error
}

type examServiceImpl struct {
	db        *sql.DB
	exams     store.ExamStore
	items     store.ReviewItemStore
	entries   store.DictionaryStore
	review    ReviewService
	generator generation.ExamContentGenerator
	grader    generation.TranslationGrader
	enqueuer  GenerationEnqueuer
	emitter   events.Emitter
	logger    *slog.Logger
}

// NewExamService creates a new ExamService.
// The enqueuer and emitter may be nil; generation must then be driven by
// calling Generate directly. All other dependencies are required.
func NewExamService(
	db *sql.DB,
	exams store.ExamStore,
	items store.ReviewItemStore,
	entries store.DictionaryStore,
	review ReviewService,
	generator generation.ExamContentGenerator,
	grader generation.TranslationGrader,
	enqueuer GenerationEnqueuer,
	emitter events.Emitter,
	logger *slog.Logger,
) (ExamService, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if exams == nil {
		return nil, errors.New("exams store cannot be nil")
	}
	if items == nil {
		return nil, errors.New("items store cannot be nil")
	}
	if entries == nil {
		return nil, errors.New("entries store cannot be nil")
	}
	if review == nil {
		return nil, errors.New("review service cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("content generator cannot be nil")
	}
	if grader == nil {
		return nil, errors.New("translation grader cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &examServiceImpl{
		db:        db,
		exams:     exams,
		items:     items,
		entries:   entries,
		review:    review,
		generator: generator,
		grader:    grader,
		enqueuer:  enqueuer,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "exam_service")),
	}, nil
}

// CreateExam implements ExamService.CreateExam
func (s *examServiceImpl) CreateExam(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	mode domain.ExamMode,
	spellingCount, translationCount int,
) (*domain.Exam, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	exam, err := domain.NewExam(userID, collectionID, mode, spellingCount, translationCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	eligible, err := s.items.CountEligible(ctx, collectionID)
	if err != nil {
		return nil, NewOpError("create_exam", "failed to count eligible items", err)
	}
	if eligible < exam.TotalWords {
		return nil, fmt.Errorf("%w: exam needs %d words but collection has %d eligible items",
			ErrInvalidArgument, exam.TotalWords, eligible)
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		if store.IsNotFoundError(err) || errors.Is(err, store.ErrInvalidEntity) {
			return nil, fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
		}
		return nil, NewOpError("create_exam", "failed to save exam", err)
	}

	log.Info("exam created",
		slog.String("exam_id", exam.ID.String()),
		slog.String("collection_id", collectionID.String()),
		slog.String("mode", string(mode)),
		slog.Int("total_words", exam.TotalWords))

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueExamGeneration(ctx, exam.ID); err != nil {
			// The exam stays pending; the stuck-task sweep or a manual
			// Generate call can still pick it up.
			log.Error("failed to enqueue exam generation",
				slog.String("exam_id", exam.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	return exam, nil
}

// Generate implements ExamService.Generate
// The external generator call happens between two short transactions; no
// database lock is held while waiting on the model.
func (s *examServiceImpl) Generate(ctx context.Context, examID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claimed, err := s.exams.ClaimGeneration(ctx, examID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: exam %s", ErrNotFound, examID)
		}
		return NewOpError("generate_exam", "failed to claim generation", err)
	}
	if !claimed {
		return fmt.Errorf("%w: exam %s is not pending or generation already started",
			ErrConflict, examID)
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return NewOpError("generate_exam", "failed to load claimed exam", err)
	}

	snapshots, err := s.selectSnapshots(ctx, exam)
	if err != nil {
		return s.markExamFailed(ctx, examID, "generate_exam", err)
	}

	content, err := s.generator.GenerateExamContent(
		ctx, snapshots, exam.SpellingWordCount, exam.TranslationSentenceCount)
	if err != nil {
		log.Error("exam content generation failed",
			slog.String("exam_id", examID.String()),
			slog.String("error", err.Error()))
		return s.markExamFailed(ctx, examID, "generate_exam", fmt.Errorf("%w: %v", ErrExternalFailure, err))
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txExams := s.exams.WithTx(tx)

		locked, err := txExams.GetForUpdate(ctx, examID)
		if err != nil {
			return NewOpError("generate_exam", "failed to lock exam", err)
		}
		if err := locked.TransitionTo(domain.ExamStatusGenerated); err != nil {
			return fmt.Errorf("%w: exam %s is %s", ErrInvalidState, examID, locked.Status)
		}

		spelling := make([]*domain.SpellingSection, 0, len(content.Spelling))
		for _, prompt := range content.Spelling {
			section, err := domain.NewSpellingSection(
				examID, prompt.EntryID, prompt.ItemID, prompt.Prompt, prompt.Answer)
			if err != nil {
				return NewOpError("generate_exam", "invalid spelling section", err)
			}
			spelling = append(spelling, section)
		}

		wordToItem := make(map[string]uuid.UUID, len(snapshots))
		for _, snap := range snapshots {
			wordToItem[snap.Word] = snap.ItemID
		}

		translation := make([]*domain.TranslationSection, 0, len(content.Sentences))
		for _, sentence := range content.Sentences {
			itemIDs := make([]uuid.UUID, 0, len(sentence.WordsUsed))
			for _, word := range sentence.WordsUsed {
				if id, ok := wordToItem[word]; ok {
					itemIDs = append(itemIDs, id)
				}
			}
			section, err := domain.NewTranslationSection(
				examID, sentence.Key, sentence.Sentence, itemIDs)
			if err != nil {
				return NewOpError("generate_exam", "invalid translation section", err)
			}
			translation = append(translation, section)
		}

		if err := txExams.CreateSpellingSections(ctx, spelling); err != nil {
			return NewOpError("generate_exam", "failed to save spelling sections", err)
		}
		if err := txExams.CreateTranslationSections(ctx, translation); err != nil {
			return NewOpError("generate_exam", "failed to save translation sections", err)
		}

		if err := txExams.Update(ctx, locked); err != nil {
			return NewOpError("generate_exam", "failed to update exam", err)
		}
		return nil
	})
	if err != nil {
		return s.markExamFailed(ctx, examID, "generate_exam", err)
	}

	log.Info("exam generated",
		slog.String("exam_id", examID.String()),
		slog.Int("spelling_sections", len(content.Spelling)),
		slog.Int("translation_sections", len(content.Sentences)))

	s.emitExamEvent(ctx, exam, events.EventExamGenerated, "")
	return nil
}

// selectSnapshots picks the exam's words from the collection. Items still
// in rotation come first; mastered items fill the remainder when rotation
// alone cannot cover the requested word count.
func (s *examServiceImpl) selectSnapshots(
	ctx context.Context,
	exam *domain.Exam,
) ([]generation.EntrySnapshot, error) {
	items, err := s.items.ListByCollection(ctx, exam.CollectionID, false)
	if err != nil {
		return nil, NewOpError("generate_exam", "failed to list collection items", err)
	}

	active := make([]*domain.ReviewItem, 0, len(items))
	mastered := make([]*domain.ReviewItem, 0)
	for _, item := range items {
		if item.Status.IsActive() {
			active = append(active, item)
		} else {
			mastered = append(mastered, item)
		}
	}

	candidates := append(active, mastered...)
	if len(candidates) < exam.TotalWords {
		return nil, fmt.Errorf("%w: exam needs %d words but collection has %d eligible items",
			ErrInvalidState, exam.TotalWords, len(candidates))
	}
	candidates = candidates[:exam.TotalWords]

	entryIDs := make([]uuid.UUID, len(candidates))
	for i, item := range candidates {
		entryIDs[i] = item.EntryID
	}
	entries, err := s.entries.GetManyByIDs(ctx, entryIDs)
	if err != nil {
		return nil, NewOpError("generate_exam", "failed to load dictionary entries", err)
	}

	snapshots := make([]generation.EntrySnapshot, 0, len(candidates))
	for _, item := range candidates {
		entry, ok := entries[item.EntryID]
		if !ok {
			return nil, fmt.Errorf("%w: review item %s references missing entry %s",
				ErrIntegrityViolation, item.ID, item.EntryID)
		}
		snapshots = append(snapshots, generation.EntrySnapshot{
			EntryID: entry.ID,
			ItemID:  item.ID,
			Word:    entry.Word,
			Meaning: entry.Meaning(),
		})
	}
	return snapshots, nil
}

// markExamFailed moves the exam to Failed with the cause recorded. Used for
// both generation and grading failures; a generation failure leaves the
// section tables untouched, so a failed exam owns zero sections.
func (s *examServiceImpl) markExamFailed(ctx context.Context, examID uuid.UUID, op string, cause error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exam *domain.Exam
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txExams := s.exams.WithTx(tx)

		locked, err := txExams.GetForUpdate(ctx, examID)
		if err != nil {
			return err
		}
		// GenerationError records generation failures only; a grading
		// failure keeps its cause in the failure event and the log.
		wasPending := locked.Status == domain.ExamStatusPending
		if err := locked.TransitionTo(domain.ExamStatusFailed); err != nil {
			return err
		}
		if wasPending {
			locked.GenerationError = cause.Error()
		}
		if err := txExams.Update(ctx, locked); err != nil {
			return err
		}
		exam = locked
		return nil
	})
	if err != nil {
		log.Error("failed to mark exam as failed",
			slog.String("exam_id", examID.String()),
			slog.String("error", err.Error()),
			slog.String("cause", cause.Error()))
		return NewOpError(op, "failed to record exam failure", err)
	}

	log.Warn("exam failed",
		slog.String("exam_id", examID.String()),
		slog.String("cause", cause.Error()))

	s.emitExamEvent(ctx, exam, events.EventExamFailed, cause.Error())
	return cause
}

// SubmitForGrading implements ExamService.SubmitForGrading
func (s *examServiceImpl) SubmitForGrading(
	ctx context.Context,
	userID, examID uuid.UUID,
	answers *domain.ExamAnswers,
) (*domain.Exam, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if answers == nil {
		return nil, fmt.Errorf("%w: answers cannot be nil", ErrInvalidArgument)
	}
	if err := answers.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var submitted *domain.Exam
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txExams := s.exams.WithTx(tx)

		exam, err := txExams.GetForUpdate(ctx, examID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: exam %s", ErrNotFound, examID)
			}
			return NewOpError("submit_exam", "failed to lock exam", err)
		}
		if exam.UserID != userID {
			return ErrNotOwned
		}

		if err := exam.TransitionTo(domain.ExamStatusGrading); err != nil {
			return fmt.Errorf("%w: cannot submit exam in state %s", ErrInvalidState, exam.Status)
		}
		exam.Answers = answers

		if err := txExams.Update(ctx, exam); err != nil {
			return NewOpError("submit_exam", "failed to update exam", err)
		}

		submitted = exam
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("exam submitted for grading",
		slog.String("exam_id", examID.String()),
		slog.String("mode", string(submitted.Mode)))

	if submitted.Mode == domain.ExamModeImmediate {
		if _, err := s.CompleteGrading(ctx, examID); err != nil {
			return nil, err
		}
		return s.exams.GetByID(ctx, examID)
	}

	return submitted, nil
}

// CompleteGrading implements ExamService.CompleteGrading
// Spelling answers are checked locally; translation answers go through the
// external grader before any state is written.
func (s *examServiceImpl) CompleteGrading(
	ctx context.Context,
	examID uuid.UUID,
) ([]domain.GradingResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: exam %s", ErrNotFound, examID)
		}
		return nil, NewOpError("grade_exam", "failed to get exam", err)
	}
	if exam.Status != domain.ExamStatusGrading {
		return nil, fmt.Errorf("%w: exam %s is %s, not grading", ErrInvalidState, examID, exam.Status)
	}
	if exam.Answers == nil {
		return nil, fmt.Errorf("%w: exam %s has no stored answers", ErrIntegrityViolation, examID)
	}

	spelling, err := s.exams.ListSpellingSections(ctx, examID)
	if err != nil {
		return nil, NewOpError("grade_exam", "failed to list spelling sections", err)
	}
	translation, err := s.exams.ListTranslationSections(ctx, examID)
	if err != nil {
		return nil, NewOpError("grade_exam", "failed to list translation sections", err)
	}

	results, err := s.gradeSections(ctx, exam, spelling, translation)
	if err != nil {
		// A grading failure is terminal for the exam, not a retryable
		// request error.
		return nil, s.markExamFailed(ctx, examID, "grade_exam", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txExams := s.exams.WithTx(tx)

		locked, err := txExams.GetForUpdate(ctx, examID)
		if err != nil {
			return NewOpError("grade_exam", "failed to lock exam", err)
		}
		if err := locked.TransitionTo(domain.ExamStatusCompleted); err != nil {
			return fmt.Errorf("%w: exam %s is %s", ErrInvalidState, examID, locked.Status)
		}
		now := time.Now().UTC()
		locked.CompletedAt = &now

		if err := txExams.Update(ctx, locked); err != nil {
			return NewOpError("grade_exam", "failed to update exam", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Verdict feedback runs only after winning the Completed transition;
	// a concurrent grading pass that lost the row lock records nothing, so
	// item counters move once per exam. Sections whose item was deleted or
	// archived since generation are skipped, not failed.
	for _, result := range results {
		s.applyVerdict(ctx, exam.UserID, result)
	}

	log.Info("exam graded",
		slog.String("exam_id", examID.String()),
		slog.Int("result_count", len(results)))

	s.emitExamEvent(ctx, exam, events.EventExamCompleted, "")
	return results, nil
}

// gradeSections produces one verdict per spelling section and one per item
// exercised by each translation sentence.
func (s *examServiceImpl) gradeSections(
	ctx context.Context,
	exam *domain.Exam,
	spelling []*domain.SpellingSection,
	translation []*domain.TranslationSection,
) ([]domain.GradingResult, error) {
	answers := exam.Answers

	spellingAnswers := make(map[uuid.UUID]string, len(answers.Spelling))
	for _, a := range answers.Spelling {
		spellingAnswers[a.SectionID] = a.Answer
	}
	translationAnswers := make(map[uuid.UUID]string, len(answers.Translation))
	for _, a := range answers.Translation {
		translationAnswers[a.SectionID] = a.Answer
	}

	results := make([]domain.GradingResult, 0, len(spelling)+len(translation))

	for _, section := range spelling {
		given, answered := spellingAnswers[section.ID]
		correct := answered &&
			domain.NormalizeWord(given) == domain.NormalizeWord(section.Answer)

		feedback := fmt.Sprintf("The word was %q.", section.Answer)
		if correct {
			feedback = "Correct."
		}
		results = append(results, domain.GradingResult{
			SectionID: section.ID,
			ItemID:    section.ItemID,
			Correct:   correct,
			Feedback:  feedback,
		})
	}

	wordsByItem, err := s.resolveItemWords(ctx, translation)
	if err != nil {
		return nil, err
	}

	for _, section := range translation {
		given := translationAnswers[section.ID]

		words := make([]string, 0, len(section.ItemIDs))
		for _, itemID := range section.ItemIDs {
			if word, ok := wordsByItem[itemID]; ok {
				words = append(words, word)
			}
		}
		verdict, err := s.grader.GradeTranslation(ctx, generation.TranslationGradingRequest{
			Sentence:        section.Prompt,
			RequiredWords:   words,
			UserTranslation: given,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: translation grading: %v", ErrExternalFailure, err)
		}

		for _, itemID := range section.ItemIDs {
			results = append(results, domain.GradingResult{
				SectionID: section.ID,
				ItemID:    uuid.NullUUID{UUID: itemID, Valid: true},
				Correct:   verdict.Correct,
				Feedback:  verdict.Feedback,
			})
		}
	}

	return results, nil
}

// resolveItemWords maps the items exercised by translation sections back to
// their word surface forms. Items deleted since generation are simply
// absent from the map.
func (s *examServiceImpl) resolveItemWords(
	ctx context.Context,
	translation []*domain.TranslationSection,
) (map[uuid.UUID]string, error) {
	words := make(map[uuid.UUID]string)
	entryByItem := make(map[uuid.UUID]uuid.UUID)
	entryIDs := make([]uuid.UUID, 0)

	for _, section := range translation {
		for _, itemID := range section.ItemIDs {
			if _, seen := entryByItem[itemID]; seen {
				continue
			}
			item, err := s.items.GetByID(ctx, itemID)
			if err != nil {
				if store.IsNotFoundError(err) {
					continue
				}
				return nil, NewOpError("grade_exam", "failed to get review item", err)
			}
			entryByItem[itemID] = item.EntryID
			entryIDs = append(entryIDs, item.EntryID)
		}
	}

	entries, err := s.entries.GetManyByIDs(ctx, entryIDs)
	if err != nil {
		return nil, NewOpError("grade_exam", "failed to load dictionary entries", err)
	}

	for itemID, entryID := range entryByItem {
		if entry, ok := entries[entryID]; ok {
			words[itemID] = entry.Word
		}
	}
	return words, nil
}

// applyVerdict records one graded section as a study attempt on its item.
// Items that vanished or were archived after generation are skipped.
func (s *examServiceImpl) applyVerdict(ctx context.Context, userID uuid.UUID, result domain.GradingResult) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !result.ItemID.Valid {
		return
	}

	_, err := s.review.RecordStudyAttempt(ctx, userID, result.ItemID.UUID, result.Correct)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
			log.Debug("skipping progress update for graded section",
				slog.String("item_id", result.ItemID.UUID.String()),
				slog.String("reason", err.Error()))
			return
		}
		log.Error("failed to record graded attempt",
			slog.String("item_id", result.ItemID.UUID.String()),
			slog.String("error", err.Error()))
	}
}

// GetExam implements ExamService.GetExam
func (s *examServiceImpl) GetExam(ctx context.Context, userID, examID uuid.UUID) (*ExamDetail, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: exam %s", ErrNotFound, examID)
		}
		return nil, NewOpError("get_exam", "failed to get exam", err)
	}
	if exam.UserID != userID {
		return nil, ErrNotOwned
	}

	spelling, err := s.exams.ListSpellingSections(ctx, examID)
	if err != nil {
		return nil, NewOpError("get_exam", "failed to list spelling sections", err)
	}
	translation, err := s.exams.ListTranslationSections(ctx, examID)
	if err != nil {
		return nil, NewOpError("get_exam", "failed to list translation sections", err)
	}

	return &ExamDetail{
		Exam:        exam,
		Spelling:    spelling,
		Translation: translation,
	}, nil
}

// ListExams implements ExamService.ListExams
func (s *examServiceImpl) ListExams(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Exam, error) {
	exams, err := s.exams.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewOpError("list_exams", "failed to list exams", err)
	}
	return exams, nil
}

// DeleteExam implements ExamService.DeleteExam
func (s *examServiceImpl) DeleteExam(ctx context.Context, userID, examID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: exam %s", ErrNotFound, examID)
		}
		return NewOpError("delete_exam", "failed to get exam", err)
	}
	if exam.UserID != userID {
		return ErrNotOwned
	}
	if exam.Status == domain.ExamStatusGrading {
		return fmt.Errorf("%w: exam %s is being graded", ErrInvalidState, examID)
	}

	if err := s.exams.Delete(ctx, examID); err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: exam %s", ErrNotFound, examID)
		}
		return NewOpError("delete_exam", "failed to delete exam", err)
	}

	log.Info("exam deleted", slog.String("exam_id", examID.String()))
	return nil
}

func (s *examServiceImpl) emitExamEvent(ctx context.Context, exam *domain.Exam, eventType, errText string) {
	if s.emitter == nil || exam == nil {
		return
	}

	event, err := events.NewEvent(eventType, exam.UserID, events.ExamEventPayload{
		ExamID:       exam.ID,
		CollectionID: exam.CollectionID,
		Status:       string(exam.Status),
		Error:        errText,
	})
	if err != nil {
		s.logger.Warn("failed to build exam event", slog.String("error", err.Error()))
		return
	}
	s.emitter.Emit(ctx, event)
}
