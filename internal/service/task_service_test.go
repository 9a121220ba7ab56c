package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("owned by the caller at version 0", func(t *testing.T) {
		task := h.createTask(t, alice, "buy milk", nil)

		assert.Equal(t, 0, task.Version)
		assert.False(t, task.Created.IsZero())
		assert.Equal(t, h.stored(t, alice).ID, task.UserID)
		assert.False(t, task.IsComplete())
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := h.tasks.Create(ctx, alice, domain.TaskDraft{})

		assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	})

	t.Run("description limit counts characters", func(t *testing.T) {
		fits := strings.Repeat("é", 1000)
		task, err := h.tasks.Create(ctx, alice, domain.TaskDraft{Title: "long", Description: &fits})
		require.NoError(t, err)
		assert.Equal(t, fits, *h.store.Task(task.ID).Description)

		tooLong := strings.Repeat("é", 1001)
		_, err = h.tasks.Create(ctx, alice, domain.TaskDraft{Title: "longer", Description: &tooLong})
		assert.ErrorIs(t, err, domain.ErrDescriptionTooLong)
	})

	t.Run("unknown project", func(t *testing.T) {
		missing := uuid.New()
		_, err := h.tasks.Create(ctx, alice, domain.TaskDraft{Title: "x", ProjectID: &missing})

		assert.ErrorIs(t, err, store.ErrProjectNotFound)
	})

	t.Run("someone else's project", func(t *testing.T) {
		project := h.createProject(t, bob, "bob-project")
		_, err := h.tasks.Create(ctx, alice, domain.TaskDraft{Title: "x", ProjectID: &project.ID})

		assert.ErrorIs(t, err, service.ErrNotOwned)
	})
}

func TestTaskService_Access(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task := h.createTask(t, alice, "private", nil)

	_, err := h.tasks.FindByID(ctx, bob, task.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	found, err := h.tasks.FindByID(ctx, admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, found.ID)

	t.Run("missing task is not found even for a stranger", func(t *testing.T) {
		_, err := h.tasks.FindByID(ctx, bob, uuid.New())

		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.NotErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("delete by a stranger is denied and keeps the task", func(t *testing.T) {
		err := h.tasks.Delete(ctx, bob, task.ID)

		assert.ErrorIs(t, err, service.ErrNotOwned)
		assert.NotNil(t, h.store.Task(task.ID))
	})

	t.Run("listing", func(t *testing.T) {
		h.createTask(t, bob, "bob's", nil)

		mine, err := h.tasks.ListForUser(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		_, err = h.tasks.FindAll(ctx, alice)
		assert.ErrorIs(t, err, service.ErrAdminRequired)

		all, err := h.tasks.FindAll(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestTaskService_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task := h.createTask(t, alice, "draft", nil)
	priority := 2

	updated, err := h.tasks.Update(ctx, alice, task.ID, domain.TaskDraft{Title: "final", Priority: &priority}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)
	assert.Equal(t, "final", updated.Title)

	_, err = h.tasks.Update(ctx, alice, task.ID, domain.TaskDraft{Title: "stale"}, 0)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Equal(t, "final", h.store.Task(task.ID).Title)
	assert.Equal(t, 1, h.store.Task(task.ID).Version)

	_, err = h.tasks.Update(ctx, alice, uuid.New(), domain.TaskDraft{Title: "x"}, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskService_ConcurrentUpdatesOneWins(t *testing.T) {
	h := newHarness(t)
	task := h.createTask(t, alice, "contended", nil)

	const writers = 2
	var wg sync.WaitGroup
	results := make([]error, writers)
	versions := make([]int, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, err := h.tasks.Update(context.Background(), alice, task.ID, domain.TaskDraft{Title: "writer"}, 0)
			results[i] = err
			if err == nil {
				versions[i] = updated.Version
			}
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for i, err := range results {
		switch {
		case err == nil:
			wins++
			assert.Equal(t, 1, versions[i])
		case store.IsVersionConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, h.store.Task(task.ID).Version)
}

func TestTaskService_SetComplete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task := h.createTask(t, alice, "laundry", nil)

	done, err := h.tasks.SetComplete(ctx, alice, task.ID, true)
	require.NoError(t, err)
	require.NotNil(t, done.Complete)
	assert.Equal(t, 1, done.Version)
	stamp := *done.Complete

	again, err := h.tasks.SetComplete(ctx, alice, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, stamp, *again.Complete)

	reopened, err := h.tasks.SetComplete(ctx, alice, task.ID, false)
	require.NoError(t, err)
	assert.Nil(t, reopened.Complete)
	assert.Equal(t, 3, reopened.Version)

	assert.Contains(t, h.emitter.types(), events.TaskCompleted)
	assert.Contains(t, h.emitter.types(), events.TaskReopened)
}

func TestTaskService_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task := h.createTask(t, alice, "trash", nil)

	require.NoError(t, h.tasks.Delete(ctx, alice, task.ID))
	assert.Nil(t, h.store.Task(task.ID))

	err := h.tasks.Delete(ctx, alice, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskService_ConcurrentDeletesOneWins(t *testing.T) {
	h := newHarness(t)
	task := h.createTask(t, alice, "contended", nil)

	const deleters = 2
	var wg sync.WaitGroup
	results := make([]error, deleters)
	for i := range deleters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = h.tasks.Delete(context.Background(), alice, task.ID)
		}()
	}
	wg.Wait()

	var wins, missing int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case store.IsNotFoundError(err):
			missing++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, missing)
	assert.Nil(t, h.store.Task(task.ID))
	_, tasks, _ := h.store.Counts()
	assert.Equal(t, 0, tasks)
}

func TestConcreteScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	carol := domain.Identity{Name: "carol", Roles: []string{domain.RoleUser}}
	user := h.createUser(t, carol)
	milk := h.createTask(t, carol, "buy milk", nil)
	require.NoError(t, h.users.Delete(ctx, admin, user.ID))
	assert.Nil(t, h.store.Task(milk.ID))

	user = h.createUser(t, carol)
	home := h.createProject(t, carol, "home")
	clean := h.createTask(t, carol, "clean", home)
	require.NoError(t, h.projects.Delete(ctx, carol, home.ID))

	remaining := h.store.Task(clean.ID)
	require.NotNil(t, remaining)
	assert.Nil(t, remaining.ProjectID)
	assert.Nil(t, h.store.Project(home.ID))
	assert.Equal(t, user.ID, remaining.UserID)
}
