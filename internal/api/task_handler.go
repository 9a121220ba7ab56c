package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service"
)

// TaskHandler serves the task endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /tasks. It returns the caller's tasks, or every task when
// an admin asks for ?scope=all.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var (
		tasks []*domain.Task
		err   error
	)
	if r.URL.Query().Get("scope") == "all" {
		tasks, err = h.tasks.FindAll(r.Context(), caller)
	} else {
		tasks, err = h.tasks.ListForUser(r.Context(), caller)
	}
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, mapSlice(tasks, newTaskResponse))
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.FindByID(r.Context(), caller, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), caller, req.draft())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// Update handles PUT /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), caller, id, req.draft(), req.Version)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), caller, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithStatus(w, http.StatusNoContent)
}

// SetComplete handles PUT /tasks/{id}/complete.
func (h *TaskHandler) SetComplete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	var req CompleteRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	task, err := h.tasks.SetComplete(r.Context(), caller, id, req.Complete)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}
