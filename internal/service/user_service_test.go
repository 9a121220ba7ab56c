package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserService_RequiresDependencies(t *testing.T) {
	ms := mocks.NewMemoryStore()
	hasher := &mocks.PlainHasher{}

	_, err := service.NewUserService(nil, hasher, hasher, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = service.NewUserService(ms, nil, hasher, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = service.NewUserService(ms, hasher, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("new user starts at version 0 with a hashed password", func(t *testing.T) {
		user, err := h.users.Create(ctx, admin, service.UserDraft{Name: "carol", Password: "pw-carol"})

		require.NoError(t, err)
		assert.Equal(t, 0, user.Version)
		assert.False(t, user.Created.IsZero())
		assert.Empty(t, user.Password)
		assert.Equal(t, mocks.PlainHashPrefix+"pw-carol", user.HashedPassword)
		assert.Equal(t, []string{domain.RoleUser}, user.Roles)
	})

	t.Run("duplicate name is a conflict and leaves the first user intact", func(t *testing.T) {
		before := h.stored(t, alice)

		_, err := h.users.Create(ctx, admin, service.UserDraft{Name: "alice", Password: "other"})

		assert.ErrorIs(t, err, store.ErrUserNameExists)
		assert.True(t, store.IsDuplicateError(err))
		assert.Equal(t, before, h.stored(t, alice))
	})

	t.Run("invalid draft is rejected before hashing", func(t *testing.T) {
		_, err := h.users.Create(ctx, admin, service.UserDraft{Name: "", Password: "x"})

		assert.ErrorIs(t, err, domain.ErrEmptyName)
	})

	t.Run("name limit counts characters", func(t *testing.T) {
		fits := strings.Repeat("é", 255)
		user, err := h.users.Create(ctx, admin, service.UserDraft{Name: fits, Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, fits, user.Name)

		_, err = h.users.Create(ctx, admin, service.UserDraft{Name: strings.Repeat("é", 256), Password: "pw"})
		assert.ErrorIs(t, err, domain.ErrNameTooLong)
	})

	t.Run("hash failure", func(t *testing.T) {
		hashErr := errors.New("hash failed")
		users, err := service.NewUserService(h.store, &mocks.PlainHasher{HashErr: hashErr}, &mocks.PlainHasher{}, nil, nil)
		require.NoError(t, err)

		_, err = users.Create(ctx, admin, service.UserDraft{Name: "dave", Password: "pw"})

		assert.ErrorIs(t, err, hashErr)
	})
}

func TestUserService_Find(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	stored := h.stored(t, alice)

	found, err := h.users.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Name)

	_, err = h.users.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	all, err := h.users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = h.users.FindByName(ctx, "nobody")
	assert.True(t, store.IsNotFoundError(err))
}

func TestUserService_Current(t *testing.T) {
	h := newHarness(t)

	user, err := h.users.Current(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Name)

	_, err = h.users.Current(context.Background(), domain.Identity{Name: "ghost"})
	assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)
	assert.False(t, store.IsNotFoundError(err))
}

func TestUserService_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.stored(t, alice)

	updated, err := h.users.Update(ctx, admin, before.ID, service.UserDraft{
		Name:    "alice2",
		Roles:   []string{domain.RoleUser, domain.RoleAdmin},
		Version: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)
	assert.Equal(t, "alice2", updated.Name)
	assert.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, updated.Roles)
	assert.Equal(t, before.HashedPassword, h.store.User(before.ID).HashedPassword)

	t.Run("stale version leaves the row unchanged", func(t *testing.T) {
		_, err := h.users.Update(ctx, admin, before.ID, service.UserDraft{Name: "alice3", Version: 0})

		assert.ErrorIs(t, err, store.ErrVersionConflict)
		stored := h.store.User(before.ID)
		assert.Equal(t, "alice2", stored.Name)
		assert.Equal(t, 1, stored.Version)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := h.users.Update(ctx, admin, uuid.New(), service.UserDraft{Name: "x"})

		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rename onto a taken name", func(t *testing.T) {
		_, err := h.users.Update(ctx, admin, before.ID, service.UserDraft{Name: "bob", Version: 1})

		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestUserService_Delete_Cascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.stored(t, alice)

	home := h.createProject(t, alice, "home")
	milk := h.createTask(t, alice, "buy milk", nil)
	h.createTask(t, alice, "clean", home)
	bobTask := h.createTask(t, bob, "borrowed", nil)
	_, err := h.tasks.Update(ctx, admin, bobTask.ID, domain.TaskDraft{Title: "borrowed", ProjectID: &home.ID}, 0)
	require.NoError(t, err)

	err = h.users.Delete(ctx, admin, user.ID)

	require.NoError(t, err)
	assert.Nil(t, h.store.User(user.ID))
	assert.Nil(t, h.store.Task(milk.ID))
	assert.Nil(t, h.store.Project(home.ID))
	remaining := h.store.Task(bobTask.ID)
	require.NotNil(t, remaining)
	assert.Nil(t, remaining.ProjectID)
	users, tasks, projects := h.store.Counts()
	assert.Equal(t, []int{2, 1, 0}, []int{users, tasks, projects})
	assert.Contains(t, h.emitter.types(), events.UserDeleted)
}

func TestUserService_Delete_NotFoundLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t)
	h.createTask(t, alice, "buy milk", nil)
	users, tasks, projects := h.store.Counts()

	err := h.users.Delete(context.Background(), admin, uuid.New())

	assert.ErrorIs(t, err, store.ErrUserNotFound)
	u, tk, p := h.store.Counts()
	assert.Equal(t, []int{users, tasks, projects}, []int{u, tk, p})
}

func TestUserService_Delete_FailureRollsBackEveryStep(t *testing.T) {
	for _, stmt := range []string{
		"tasks.delete_by_user",
		"tasks.clear_projects_owned_by",
		"projects.delete_by_user",
		"users.delete",
	} {
		t.Run(stmt, func(t *testing.T) {
			h := newHarness(t)
			user := h.stored(t, alice)
			home := h.createProject(t, alice, "home")
			h.createTask(t, alice, "clean", home)
			eventsBefore := len(h.emitter.types())

			injected := errors.New("disk full")
			h.store.FailOn = func(s string) error {
				if s == stmt {
					return injected
				}
				return nil
			}

			err := h.users.Delete(context.Background(), admin, user.ID)

			assert.ErrorIs(t, err, injected)
			assert.NotNil(t, h.store.User(user.ID))
			assert.NotNil(t, h.store.Project(home.ID))
			_, tasks, _ := h.store.Counts()
			assert.Equal(t, 1, tasks)
			assert.Len(t, h.emitter.types(), eventsBefore)
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.stored(t, alice)

	t.Run("wrong current password is a conflict", func(t *testing.T) {
		_, err := h.users.ChangePassword(ctx, alice, "wrong", "new-password")

		assert.ErrorIs(t, err, service.ErrPasswordMismatch)
		assert.Equal(t, before.HashedPassword, h.store.User(before.ID).HashedPassword)
	})

	t.Run("empty new password", func(t *testing.T) {
		_, err := h.users.ChangePassword(ctx, alice, "alice-password", "")

		assert.ErrorIs(t, err, domain.ErrEmptyPassword)
	})

	t.Run("success stores the new hash and bumps the version", func(t *testing.T) {
		user, err := h.users.ChangePassword(ctx, alice, "alice-password", "new-password")

		require.NoError(t, err)
		assert.Equal(t, before.Version+1, user.Version)
		assert.Equal(t, mocks.PlainHashPrefix+"new-password", h.store.User(before.ID).HashedPassword)
		assert.Contains(t, h.emitter.types(), events.UserPasswordChanged)
	})
}
