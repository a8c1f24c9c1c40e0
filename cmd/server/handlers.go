package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/service"
	"github.com/mquell/vocab-api/internal/store"
)

// userIDHeader carries the caller's identity. The service trusts the
// gateway in front of it to authenticate; it only enforces ownership.
const userIDHeader = "X-User-ID"

var validate = validator.New()

type apiHandler struct {
	app *application
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *apiHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.app.logger)
		log.Error("failed to encode response", "error", err)
	}
}

// respondError maps service errors onto HTTP status codes. Internal error
// details are logged, not exposed.
func (h *apiHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		message = "resource not found"
	case errors.Is(err, service.ErrNotOwned):
		status = http.StatusForbidden
		message = "resource not owned by caller"
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
		message = "resource conflict"
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
		message = "operation not valid in current state"
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
		message = "invalid request"
	case errors.Is(err, service.ErrExternalFailure):
		status = http.StatusBadGateway
		message = "upstream content generation failed"
	}

	log := logger.FromContextOrDefault(r.Context(), h.app.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "path", r.URL.Path)
	} else {
		log.Debug("request rejected", "error", err, "path", r.URL.Path, "status", status)
	}

	h.respondJSON(w, r, status, errorResponse{Error: message})
}

func (h *apiHandler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	h.respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: message})
}

// userID extracts and parses the caller identity header.
func (h *apiHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		h.badRequest(w, r, "missing "+userIDHeader+" header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.badRequest(w, r, "invalid "+userIDHeader+" header")
		return uuid.Nil, false
	}
	return id, true
}

func (h *apiHandler) pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		h.badRequest(w, r, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func (h *apiHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.badRequest(w, r, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.badRequest(w, r, "request validation failed: "+err.Error())
		return false
	}
	return true
}

// --- collections ---

type createCollectionRequest struct {
	Name        string `json:"name" validate:"required,max=30"`
	Description string `json:"description" validate:"max=500"`
}

func (h *apiHandler) createCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	collection, err := h.app.collectionService.CreateCollection(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, collection)
}

func (h *apiHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collections, err := h.app.collectionService.ListCollections(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, collections)
}

func (h *apiHandler) getCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	collection, err := h.app.collectionService.GetCollection(r.Context(), userID, collectionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, collection)
}

func (h *apiHandler) updateCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	var req createCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	collection, err := h.app.collectionService.RenameCollection(r.Context(), userID, collectionID, req.Name, req.Description)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, collection)
}

func (h *apiHandler) deleteCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	if err := h.app.collectionService.DeleteCollection(r.Context(), userID, collectionID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *apiHandler) verifyItemCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	count, err := h.app.collectionService.VerifyItemCount(r.Context(), collectionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]int{"item_count": count})
}

// --- review items ---

type addWordRequest struct {
	Word string `json:"word" validate:"required,max=100"`
}

func (h *apiHandler) addWord(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	var req addWordRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.app.reviewService.AddWord(r.Context(), userID, collectionID, req.Word)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, item)
}

func (h *apiHandler) removeWord(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	word := chi.URLParam(r, "word")
	if word == "" {
		h.badRequest(w, r, "missing word")
		return
	}
	if err := h.app.reviewService.RemoveWord(r.Context(), userID, collectionID, word); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *apiHandler) listItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	items, err := h.app.reviewService.ListItems(r.Context(), userID, collectionID, includeArchived)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, items)
}

type duePageResponse struct {
	Items      []*domain.ReviewItem `json:"items"`
	NextDue    *time.Time           `json:"next_due,omitempty"`
	NextID     string               `json:"next_id,omitempty"`
	HasMore    bool                 `json:"has_more"`
	PageLimit  int                  `json:"page_limit"`
	ServerTime time.Time            `json:"server_time"`
}

func (h *apiHandler) listDueItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	collectionID, ok := h.pathUUID(w, r, "collectionID")
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := 20
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.badRequest(w, r, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	var cursor store.DueCursor
	if raw := q.Get("cursor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.badRequest(w, r, "invalid cursor_id")
			return
		}
		cursor.ID = id
		if rawDue := q.Get("cursor_due"); rawDue != "" {
			due, err := time.Parse(time.RFC3339, rawDue)
			if err != nil {
				h.badRequest(w, r, "cursor_due must be RFC 3339")
				return
			}
			cursor.Due = &due
		}
	}

	now := time.Now().UTC()
	page, err := h.app.reviewService.DueItems(r.Context(), userID, collectionID, now, cursor, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := duePageResponse{
		Items:      page.Items,
		HasMore:    len(page.Items) == limit,
		PageLimit:  limit,
		ServerTime: now,
	}
	if !page.Next.IsZero() {
		resp.NextDue = page.Next.Due
		resp.NextID = page.Next.ID.String()
	}
	h.respondJSON(w, r, http.StatusOK, resp)
}

type studyAttemptRequest struct {
	Correct *bool `json:"correct" validate:"required"`
}

func (h *apiHandler) recordStudyAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	var req studyAttemptRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.app.reviewService.RecordStudyAttempt(r.Context(), userID, itemID, *req.Correct)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, item)
}

func (h *apiHandler) archiveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	item, err := h.app.reviewService.ArchiveItem(r.Context(), userID, itemID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, item)
}

// --- exams ---

type createExamRequest struct {
	CollectionID     string `json:"collection_id" validate:"required,uuid"`
	Mode             string `json:"mode" validate:"required,oneof=immediate deferred"`
	SpellingCount    int    `json:"spelling_count" validate:"min=0,max=50"`
	TranslationCount int    `json:"translation_count" validate:"min=0,max=50"`
}

func (h *apiHandler) createExam(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createExamRequest
	if !h.decode(w, r, &req) {
		return
	}
	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		h.badRequest(w, r, "invalid collection_id")
		return
	}

	exam, err := h.app.examService.CreateExam(r.Context(), userID, collectionID,
		domain.ExamMode(req.Mode), req.SpellingCount, req.TranslationCount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusAccepted, exam)
}

func (h *apiHandler) listExams(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, offset := 10, 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.badRequest(w, r, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}
	if raw := q.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.badRequest(w, r, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	exams, err := h.app.examService.ListExams(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, exams)
}

type examDetailResponse struct {
	Exam        *domain.Exam                 `json:"exam"`
	Spelling    []*domain.SpellingSection    `json:"spelling"`
	Translation []*domain.TranslationSection `json:"translation"`
}

func (h *apiHandler) getExam(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	examID, ok := h.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	detail, err := h.app.examService.GetExam(r.Context(), userID, examID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, examDetailResponse{
		Exam:        detail.Exam,
		Spelling:    detail.Spelling,
		Translation: detail.Translation,
	})
}

func (h *apiHandler) submitAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	examID, ok := h.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	var answers domain.ExamAnswers
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}

	exam, err := h.app.examService.SubmitForGrading(r.Context(), userID, examID, &answers)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, exam)
}

type gradeExamResponse struct {
	Results []domain.GradingResult `json:"results"`
}

// gradeExam grades a deferred-mode exam that parked in the grading state
// after its answers were submitted. Ownership is checked up front because
// grading itself runs on the exam ID alone.
func (h *apiHandler) gradeExam(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	examID, ok := h.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	if _, err := h.app.examService.GetExam(r.Context(), userID, examID); err != nil {
		h.respondError(w, r, err)
		return
	}

	results, err := h.app.examService.CompleteGrading(r.Context(), examID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, gradeExamResponse{Results: results})
}

func (h *apiHandler) deleteExam(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	examID, ok := h.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	if err := h.app.examService.DeleteExam(r.Context(), userID, examID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

// --- dictionary entries ---

func (h *apiHandler) getEntryByWord(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	word := chi.URLParam(r, "word")
	if word == "" {
		h.badRequest(w, r, "missing word")
		return
	}
	entry, err := h.app.dictionaryService.GetEntryByWord(r.Context(), word)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, entry)
}

func (h *apiHandler) getEntry(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	entryID, ok := h.pathUUID(w, r, "entryID")
	if !ok {
		return
	}
	entry, err := h.app.dictionaryService.GetEntry(r.Context(), entryID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, entry)
}

func (h *apiHandler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	entryID, ok := h.pathUUID(w, r, "entryID")
	if !ok {
		return
	}
	if err := h.app.dictionaryService.DeleteEntry(r.Context(), entryID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusNoContent, nil)
}
