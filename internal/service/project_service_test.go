package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	project := h.createProject(t, alice, "home")
	assert.Equal(t, 0, project.Version)
	assert.False(t, project.Created.IsZero())

	_, err := h.projects.Create(ctx, bob, "home")
	assert.ErrorIs(t, err, store.ErrProjectNameExists)
	assert.Equal(t, "home", h.store.Project(project.ID).Name)
	assert.Equal(t, h.stored(t, alice).ID, h.store.Project(project.ID).UserID)

	wide := h.createProject(t, alice, strings.Repeat("日", 255))
	assert.Equal(t, strings.Repeat("日", 255), h.store.Project(wide.ID).Name)

	_, err = h.projects.Create(ctx, alice, strings.Repeat("日", 256))
	assert.ErrorIs(t, err, domain.ErrNameTooLong)
}

func TestProjectService_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	project := h.createProject(t, alice, "home")

	_, err := h.projects.Update(ctx, bob, project.ID, "mine now", 0)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	updated, err := h.projects.Update(ctx, alice, project.ID, "house", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)

	_, err = h.projects.Update(ctx, alice, project.ID, "flat", 0)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Equal(t, "house", h.store.Project(project.ID).Name)

	_, err = h.projects.Update(ctx, alice, project.ID, "", 1)
	assert.Error(t, err)
}

func TestProjectService_Delete_DetachesTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	project := h.createProject(t, alice, "home")
	tasks := []uuid.UUID{
		h.createTask(t, alice, "one", project).ID,
		h.createTask(t, alice, "two", project).ID,
		h.createTask(t, alice, "three", project).ID,
	}

	require.NoError(t, h.projects.Delete(ctx, alice, project.ID))

	assert.Nil(t, h.store.Project(project.ID))
	for _, id := range tasks {
		task := h.store.Task(id)
		require.NotNil(t, task)
		assert.Nil(t, task.ProjectID)
		assert.Equal(t, 1, task.Version)
	}
	assert.Contains(t, h.emitter.types(), events.ProjectDeleted)

	err := h.projects.Delete(ctx, alice, project.ID)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestProjectService_Delete_FailureKeepsReferences(t *testing.T) {
	h := newHarness(t)
	project := h.createProject(t, alice, "home")
	task := h.createTask(t, alice, "one", project)
	injected := errors.New("lost connection")
	h.store.FailOn = func(stmt string) error {
		if stmt == "projects.delete" {
			return injected
		}
		return nil
	}

	err := h.projects.Delete(context.Background(), alice, project.ID)

	assert.ErrorIs(t, err, injected)
	require.NotNil(t, h.store.Task(task.ID).ProjectID)
	assert.Equal(t, project.ID, *h.store.Task(task.ID).ProjectID)
	assert.NotContains(t, h.emitter.types(), events.ProjectDeleted)
}

func TestProjectService_Listing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createProject(t, alice, "a")
	h.createProject(t, bob, "b")

	mine, err := h.projects.ListForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "b", mine[0].Name)

	_, err = h.projects.FindAll(ctx, bob)
	assert.ErrorIs(t, err, service.ErrAdminRequired)

	all, err := h.projects.FindAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAuthorize(t *testing.T) {
	owner := uuid.New()

	assert.NoError(t, service.Authorize(admin, nil, owner))
	assert.ErrorIs(t, service.Authorize(alice, nil, owner), service.ErrNotOwned)
	assert.ErrorIs(t, service.RequireAdmin(alice), service.ErrAdminRequired)
	assert.NoError(t, service.RequireAdmin(admin))
}
