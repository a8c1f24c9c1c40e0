package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter configures the HTTP routes for the application.
func (app *application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health response", "error", err)
		}
	})

	h := &apiHandler{app: app}

	r.Route("/api", func(r chi.Router) {
		r.Route("/collections", func(r chi.Router) {
			r.Post("/", h.createCollection)
			r.Get("/", h.listCollections)
			r.Route("/{collectionID}", func(r chi.Router) {
				r.Get("/", h.getCollection)
				r.Put("/", h.updateCollection)
				r.Delete("/", h.deleteCollection)
				r.Post("/verify-count", h.verifyItemCount)
				r.Post("/words", h.addWord)
				r.Delete("/words/{word}", h.removeWord)
				r.Get("/items", h.listItems)
				r.Get("/due", h.listDueItems)
			})
		})

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Post("/attempts", h.recordStudyAttempt)
			r.Post("/archive", h.archiveItem)
		})

		r.Route("/exams", func(r chi.Router) {
			r.Post("/", h.createExam)
			r.Get("/", h.listExams)
			r.Route("/{examID}", func(r chi.Router) {
				r.Get("/", h.getExam)
				r.Delete("/", h.deleteExam)
				r.Post("/answers", h.submitAnswers)
				r.Post("/grade", h.gradeExam)
			})
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/word/{word}", h.getEntryByWord)
			r.Get("/{entryID}", h.getEntry)
			r.Delete("/{entryID}", h.deleteEntry)
		})
	})

	return r
}
