package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrDescriptionTooLong = errors.New("description must be at most 1000 characters long")
)

const maxDescriptionLength = 1000

// Task is a unit of work owned by a user. It may belong to a project; the
// project reference is cleared, not cascaded, when the project is deleted.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	UserID      uuid.UUID  `json:"user_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	Complete    *time.Time `json:"complete,omitempty"` // nil while the task is open
	Version     int        `json:"version"`
	Created     time.Time  `json:"created"`
}

// TaskDraft carries the caller-editable fields of a task.
type TaskDraft struct {
	Title       string
	Description *string
	Priority    *int
	ProjectID   *uuid.UUID
}

// NewTask creates an open task owned by userID.
func NewTask(userID uuid.UUID, draft TaskDraft) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		UserID:      userID,
		ProjectID:   draft.ProjectID,
		Version:     0,
		Created:     Now(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Apply copies the editable fields of draft onto the task.
func (t *Task) Apply(draft TaskDraft) {
	t.Title = draft.Title
	t.Description = draft.Description
	t.Priority = draft.Priority
	t.ProjectID = draft.ProjectID
}

// IsComplete reports whether the task has a completion timestamp.
func (t *Task) IsComplete() bool {
	return t.Complete != nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
