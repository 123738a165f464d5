package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/naskhq/nask/internal/api"
	apiMiddleware "github.com/naskhq/nask/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.dispatcher, app.reconciler, app.taskStore, app.logger)
	notificationHandler := api.NewNotificationHandler(app.ingest, app.logger)

	// Liveness probe and notification ingestion share the root path.
	r.Get("/", notificationHandler.Health)
	r.Post("/", notificationHandler.Ingest)

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.ListTasks)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/{id}", taskHandler.GetTask)
	})

	return r
}
