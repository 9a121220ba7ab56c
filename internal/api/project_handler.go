package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service"
)

// ProjectHandler serves the project endpoints.
type ProjectHandler struct {
	projects service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects service.ProjectService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{
		projects: projects,
		logger:   logger.With(slog.String("component", "project_handler")),
	}
}

// List handles GET /projects, with ?scope=all for admins.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var (
		projects []*domain.Project
		err      error
	)
	if r.URL.Query().Get("scope") == "all" {
		projects, err = h.projects.FindAll(r.Context(), caller)
	} else {
		projects, err = h.projects.ListForUser(r.Context(), caller)
	}
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, mapSlice(projects, newProjectResponse))
}

// Get handles GET /projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	project, err := h.projects.FindByID(r.Context(), caller, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newProjectResponse(project))
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	var req ProjectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	project, err := h.projects.Create(r.Context(), caller, req.Name)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, newProjectResponse(project))
}

// Update handles PUT /projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	var req ProjectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	project, err := h.projects.Update(r.Context(), caller, id, req.Name, req.Version)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newProjectResponse(project))
}

// Delete handles DELETE /projects/{id}. Tasks in the project are kept and
// detached from it.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), caller, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithStatus(w, http.StatusNoContent)
}
