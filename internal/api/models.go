package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service"
)

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthResponse carries the access token issued on login.
type AuthResponse struct {
	Token string `json:"token"`
}

// CreateUserRequest defines the payload for creating a user.
type CreateUserRequest struct {
	Name     string   `json:"name"     validate:"required,max=255"`
	Password string   `json:"password" validate:"required,max=72"`
	Roles    []string `json:"roles"    validate:"omitempty,dive,oneof=admin user"`
}

func (req CreateUserRequest) draft() service.UserDraft {
	return service.UserDraft{Name: req.Name, Password: req.Password, Roles: req.Roles}
}

// UpdateUserRequest defines the payload for updating a user. Roles are left
// unchanged when omitted.
type UpdateUserRequest struct {
	Name    string   `json:"name"    validate:"required,max=255"`
	Roles   []string `json:"roles"   validate:"omitempty,dive,oneof=admin user"`
	Version int      `json:"version" validate:"gte=0"`
}

func (req UpdateUserRequest) draft() service.UserDraft {
	return service.UserDraft{Name: req.Name, Roles: req.Roles, Version: req.Version}
}

// ChangePasswordRequest defines the payload for changing the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,max=72"`
}

// UserResponse is the public view of a user. It never includes the password.
type UserResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Roles   []string  `json:"roles"`
	Version int       `json:"version"`
	Created time.Time `json:"created"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:      u.ID,
		Name:    u.Name,
		Roles:   u.Roles,
		Version: u.Version,
		Created: u.Created,
	}
}

// TaskRequest defines the payload for creating or updating a task. Version is
// ignored on create.
type TaskRequest struct {
	Title       string     `json:"title"                validate:"required"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Priority    *int       `json:"priority,omitempty"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	Version     int        `json:"version"              validate:"gte=0"`
}

func (req TaskRequest) draft() domain.TaskDraft {
	return domain.TaskDraft{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		ProjectID:   req.ProjectID,
	}
}

// CompleteRequest marks a task complete or open again.
type CompleteRequest struct {
	Complete bool `json:"complete"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	UserID      uuid.UUID  `json:"user_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	Complete    *time.Time `json:"complete,omitempty"`
	Version     int        `json:"version"`
	Created     time.Time  `json:"created"`
}

func newTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		UserID:      t.UserID,
		ProjectID:   t.ProjectID,
		Complete:    t.Complete,
		Version:     t.Version,
		Created:     t.Created,
	}
}

// ProjectRequest defines the payload for creating or updating a project.
type ProjectRequest struct {
	Name    string `json:"name"    validate:"required,max=255"`
	Version int    `json:"version" validate:"gte=0"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	UserID  uuid.UUID `json:"user_id"`
	Version int       `json:"version"`
	Created time.Time `json:"created"`
}

func newProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:      p.ID,
		Name:    p.Name,
		UserID:  p.UserID,
		Version: p.Version,
		Created: p.Created,
	}
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
