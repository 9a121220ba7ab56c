package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tasker-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasker-api/internal/api/middleware"
	"github.com/phrazzld/tasker-api/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(metrics.HTTPMetricsMiddleware)

	routes := api.Routes{
		Auth:         api.NewAuthHandler(app.authService, app.logger),
		Users:        api.NewUserHandler(app.userService, app.logger),
		Tasks:        api.NewTaskHandler(app.taskService, app.logger),
		Projects:     api.NewProjectHandler(app.projectService, app.logger),
		Authenticate: apiMiddleware.NewAuthMiddleware(app.jwtService).Authenticate,
	}
	if app.loginLimiter != nil {
		routes.LoginLimit = apiMiddleware.NewRateLimitMiddleware(app.loginLimiter)
	}
	routes.Register(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(r, app.config.Telemetry.ServiceName)
}
