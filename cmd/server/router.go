package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/careerpath-api/internal/api"
	apiMiddleware "github.com/phrazzld/careerpath-api/internal/api/middleware"
	"github.com/phrazzld/careerpath-api/internal/api/shared"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	assessmentHandler := api.NewAssessmentHandler(app.assessmentService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/submit-assessment", assessmentHandler.SubmitAssessment)
		r.Post("/calculate-scores", assessmentHandler.CalculateScores)
		r.Get("/task-status/{taskID}", assessmentHandler.GetTaskStatus)
		r.Get("/download-report/{filename}", assessmentHandler.DownloadReport)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", app.metrics.Handler())

	return r
}
