package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tasktrack/tasktrack-api/internal/api"
	apimiddleware "github.com/tasktrack/tasktrack-api/internal/api/middleware"
	"github.com/tasktrack/tasktrack-api/internal/service"
	"github.com/tasktrack/tasktrack-api/internal/service/auth"
)

// newRouter configures the application router with all routes and
// middleware.
func newRouter(taskService service.TaskService, jwtService auth.JWTService, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(taskService, log)
	authMiddleware := apimiddleware.NewAuthMiddleware(jwtService)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Error("failed to write health response", "error", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}/start", taskHandler.StartTask)
			r.Put("/tasks/{id}/pause", taskHandler.PauseTask)
			r.Put("/tasks/{id}/complete", taskHandler.CompleteTask)
			r.Put("/tasks/{id}/fail", taskHandler.FailTask)
		})
	})

	return r
}
