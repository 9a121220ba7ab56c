package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/service"
)

// UserHandler serves the user endpoints. The admin routes are guarded by
// middleware.RequireAdmin in the router; the self routes are open to any
// authenticated caller.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, mapSlice(users, newUserResponse))
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), caller, req.draft())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// Update handles PUT /users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.users.Update(r.Context(), caller, id, req.draft())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}

// Delete handles DELETE /users/{id}. The user's tasks and projects go with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := callerAndPathID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), caller, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithStatus(w, http.StatusNoContent)
}

// Self handles GET /users/self.
func (h *UserHandler) Self(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	user, err := h.users.Current(r.Context(), caller)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}

// ChangePassword handles PUT /users/self/password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.users.ChangePassword(r.Context(), caller, req.CurrentPassword, req.NewPassword)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}
