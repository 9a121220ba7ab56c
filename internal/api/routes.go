package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasker-api/internal/api/middleware"
)

// Routes bundles the handlers and guards mounted under /api/v1.
type Routes struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Tasks    *TaskHandler
	Projects *ProjectHandler

	// Authenticate verifies the bearer token on every route except login.
	Authenticate func(http.Handler) http.Handler

	// LoginLimit throttles login attempts. Nil disables throttling.
	LoginLimit func(http.Handler) http.Handler
}

// Register mounts the API routes on r.
func (rt Routes) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rt.LoginLimit != nil {
				r.Use(rt.LoginLimit)
			}
			r.Post("/auth/login", rt.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.Authenticate)

			r.Get("/users/self", rt.Users.Self)
			r.Put("/users/self/password", rt.Users.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", rt.Users.List)
				r.Post("/users", rt.Users.Create)
				r.Get("/users/{id}", rt.Users.Get)
				r.Put("/users/{id}", rt.Users.Update)
				r.Delete("/users/{id}", rt.Users.Delete)
			})

			r.Get("/tasks", rt.Tasks.List)
			r.Post("/tasks", rt.Tasks.Create)
			r.Get("/tasks/{id}", rt.Tasks.Get)
			r.Put("/tasks/{id}", rt.Tasks.Update)
			r.Delete("/tasks/{id}", rt.Tasks.Delete)
			r.Put("/tasks/{id}/complete", rt.Tasks.SetComplete)

			r.Get("/projects", rt.Projects.List)
			r.Post("/projects", rt.Projects.Create)
			r.Get("/projects/{id}", rt.Projects.Get)
			r.Put("/projects/{id}", rt.Projects.Update)
			r.Delete("/projects/{id}", rt.Projects.Delete)
		})
	})
}
