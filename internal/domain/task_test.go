package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	priority := 2

	task, err := NewTask(userID, TaskDraft{
		Title:     "buy milk",
		Priority:  &priority,
		ProjectID: &projectID,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, userID, task.UserID)
	assert.Equal(t, 0, task.Version)
	assert.False(t, task.Created.IsZero())
	assert.False(t, task.IsComplete())
	assert.Equal(t, projectID, *task.ProjectID)
}

func TestTaskValidate(t *testing.T) {
	userID := uuid.New()

	t.Run("missing title", func(t *testing.T) {
		_, err := NewTask(userID, TaskDraft{})
		assert.ErrorIs(t, err, ErrEmptyTitle)
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := NewTask(uuid.Nil, TaskDraft{Title: "orphan"})
		assert.ErrorIs(t, err, ErrEmptyUserID)
	})

	t.Run("description too long", func(t *testing.T) {
		long := strings.Repeat("d", 1001)
		_, err := NewTask(userID, TaskDraft{Title: "t", Description: &long})
		assert.ErrorIs(t, err, ErrDescriptionTooLong)
	})
}

func TestTaskApply(t *testing.T) {
	task, err := NewTask(uuid.New(), TaskDraft{Title: "old"})
	require.NoError(t, err)

	desc := "details"
	task.Apply(TaskDraft{Title: "new", Description: &desc})

	assert.Equal(t, "new", task.Title)
	assert.Equal(t, "details", *task.Description)
	assert.Nil(t, task.ProjectID)
}

func TestNewProject(t *testing.T) {
	userID := uuid.New()

	project, err := NewProject(userID, "home")
	require.NoError(t, err)
	assert.Equal(t, "home", project.Name)
	assert.Equal(t, 0, project.Version)

	_, err = NewProject(userID, "")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = NewProject(uuid.Nil, "home")
	assert.ErrorIs(t, err, ErrEmptyUserID)
}
