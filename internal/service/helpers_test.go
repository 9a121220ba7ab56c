package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/stretchr/testify/require"
)

var (
	admin = domain.Identity{Name: "admin", Roles: []string{domain.RoleAdmin}}
	alice = domain.Identity{Name: "alice", Roles: []string{domain.RoleUser}}
	bob   = domain.Identity{Name: "bob", Roles: []string{domain.RoleUser}}
)

// recordingEmitter collects emitted event types.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.DomainEvent
}

func (r *recordingEmitter) EmitEvent(ctx context.Context, event *events.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store    *mocks.MemoryStore
	emitter  *recordingEmitter
	users    *service.UserServiceImpl
	tasks    *service.TaskServiceImpl
	projects *service.ProjectServiceImpl
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ms := mocks.NewMemoryStore()
	emitter := &recordingEmitter{}
	hasher := &mocks.PlainHasher{}

	users, err := service.NewUserService(ms, hasher, hasher, emitter, logger)
	require.NoError(t, err)
	tasks, err := service.NewTaskService(ms, emitter, logger)
	require.NoError(t, err)
	projects, err := service.NewProjectService(ms, emitter, logger)
	require.NoError(t, err)

	h := &harness{store: ms, emitter: emitter, users: users, tasks: tasks, projects: projects}
	for _, id := range []domain.Identity{admin, alice, bob} {
		h.createUser(t, id)
	}
	return h
}

func (h *harness) createUser(t *testing.T, id domain.Identity) *domain.User {
	t.Helper()
	user, err := h.users.Create(context.Background(), admin, service.UserDraft{
		Name:     id.Name,
		Password: id.Name + "-password",
		Roles:    id.Roles,
	})
	require.NoError(t, err)
	return user
}

func (h *harness) createTask(t *testing.T, caller domain.Identity, title string, project *domain.Project) *domain.Task {
	t.Helper()
	draft := domain.TaskDraft{Title: title}
	if project != nil {
		draft.ProjectID = &project.ID
	}
	task, err := h.tasks.Create(context.Background(), caller, draft)
	require.NoError(t, err)
	return task
}

func (h *harness) createProject(t *testing.T, caller domain.Identity, name string) *domain.Project {
	t.Helper()
	project, err := h.projects.Create(context.Background(), caller, name)
	require.NoError(t, err)
	return project
}

func (h *harness) stored(t *testing.T, id domain.Identity) *domain.User {
	t.Helper()
	user, err := h.users.FindByName(context.Background(), id.Name)
	require.NoError(t, err)
	return user
}
