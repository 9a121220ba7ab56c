package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MemoryStore is an in-memory store.Transactor with the same observable
// semantics as the PostgreSQL stores: unique names, version-checked updates
// and all-or-nothing commits. Transactions are serialized; each one works on
// a private copy of the data that replaces the committed state on success.
type MemoryStore struct {
	mu    sync.Mutex // held for the whole of a transaction
	state *memState

	statsMu   sync.Mutex
	commits   int
	rollbacks int

	// FailOn, when set, is called before every write with the statement name
	// (for example "tasks.delete_by_user"). A non-nil result aborts the statement.
	FailOn func(statement string) error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

// Ensure MemoryStore implements store.Transactor interface
var _ store.Transactor = (*MemoryStore)(nil)

// WithinTransaction implements store.Transactor.WithinTransaction
func (m *MemoryStore) WithinTransaction(ctx context.Context, fn store.SessionFn) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrTransactionFailed, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	session := &memSession{state: work, failOn: m.FailOn}

	defer func() {
		if p := recover(); p != nil {
			m.record(false)
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	if err := fn(ctx, session); err != nil {
		m.record(false)
		return err
	}

	m.state = work
	m.record(true)
	return nil
}

func (m *MemoryStore) record(committed bool) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	if committed {
		m.commits++
	} else {
		m.rollbacks++
	}
}

// Commits returns the number of committed transactions.
func (m *MemoryStore) Commits() int {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.commits
}

// Rollbacks returns the number of rolled back transactions.
func (m *MemoryStore) Rollbacks() int {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.rollbacks
}

// Counts returns the number of committed users, tasks and projects.
func (m *MemoryStore) Counts() (users, tasks, projects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.users), len(m.state.tasks), len(m.state.projects)
}

// User returns a copy of the committed user, or nil.
func (m *MemoryStore) User(id uuid.UUID) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.state.users[id]; ok {
		return cloneUser(u)
	}
	return nil
}

// Task returns a copy of the committed task, or nil.
func (m *MemoryStore) Task(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.state.tasks[id]; ok {
		return cloneTask(t)
	}
	return nil
}

// Project returns a copy of the committed project, or nil.
func (m *MemoryStore) Project(id uuid.UUID) *domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.state.projects[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

type memState struct {
	users    map[uuid.UUID]*domain.User
	tasks    map[uuid.UUID]*domain.Task
	projects map[uuid.UUID]*domain.Project
}

func newMemState() *memState {
	return &memState{
		users:    make(map[uuid.UUID]*domain.User),
		tasks:    make(map[uuid.UUID]*domain.Task),
		projects: make(map[uuid.UUID]*domain.Project),
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for id, u := range s.users {
		out.users[id] = cloneUser(u)
	}
	for id, t := range s.tasks {
		out.tasks[id] = cloneTask(t)
	}
	for id, p := range s.projects {
		cp := *p
		out.projects[id] = &cp
	}
	return out
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Password = ""
	cp.Roles = slices.Clone(u.Roles)
	return &cp
}

func cloneTask(t *domain.Task) *domain.Task {
	cp := *t
	if t.Description != nil {
		d := *t.Description
		cp.Description = &d
	}
	if t.Priority != nil {
		p := *t.Priority
		cp.Priority = &p
	}
	if t.ProjectID != nil {
		id := *t.ProjectID
		cp.ProjectID = &id
	}
	if t.Complete != nil {
		c := *t.Complete
		cp.Complete = &c
	}
	return &cp
}

type memSession struct {
	state  *memState
	failOn func(string) error
}

func (s *memSession) Users() store.UserStore       { return &memUserStore{s} }
func (s *memSession) Tasks() store.TaskStore       { return &memTaskStore{s} }
func (s *memSession) Projects() store.ProjectStore { return &memProjectStore{s} }

func (s *memSession) check(statement string) error {
	if s.failOn == nil {
		return nil
	}
	return s.failOn(statement)
}

type memUserStore struct{ s *memSession }

func (u *memUserStore) WithTx(*sql.Tx) store.UserStore { return u }

func (u *memUserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.HashedPassword == "" {
		return domain.NewValidationError("password", "must be hashed before storing", domain.ErrEmptyHashedPassword)
	}
	if err := u.s.check("users.create"); err != nil {
		return err
	}
	for _, existing := range u.s.state.users {
		if existing.Name == user.Name {
			return store.NewStoreError("user", "create", "insert failed", store.ErrUserNameExists)
		}
	}
	u.s.state.users[user.ID] = cloneUser(user)
	return nil
}

func (u *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := u.s.state.users[id]
	if !ok {
		return nil, store.NotFound("user", "get", id, store.ErrUserNotFound)
	}
	return cloneUser(user), nil
}

func (u *memUserStore) GetByName(ctx context.Context, name string) (*domain.User, error) {
	for _, user := range u.s.state.users {
		if user.Name == name {
			return cloneUser(user), nil
		}
	}
	return nil, store.NewStoreError("user", "get",
		fmt.Sprintf("user with name %s not found", name), store.ErrUserNotFound)
}

func (u *memUserStore) List(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(u.s.state.users))
	for _, user := range u.s.state.users {
		out = append(out, cloneUser(user))
	}
	slices.SortFunc(out, func(a, b *domain.User) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (u *memUserStore) Update(ctx context.Context, user *domain.User) error {
	if err := u.s.check("users.update"); err != nil {
		return err
	}
	stored, ok := u.s.state.users[user.ID]
	if !ok || stored.Version != user.Version {
		return store.Stale("user", user.ID, user.Version)
	}
	for id, existing := range u.s.state.users {
		if id != user.ID && existing.Name == user.Name {
			return store.NewStoreError("user", "update", "update failed", store.ErrUserNameExists)
		}
	}
	user.Version++
	updated := cloneUser(user)
	updated.Created = stored.Created
	u.s.state.users[user.ID] = updated
	return nil
}

func (u *memUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.s.check("users.delete"); err != nil {
		return err
	}
	if _, ok := u.s.state.users[id]; !ok {
		return store.NotFound("user", "delete", id, store.ErrUserNotFound)
	}
	for _, t := range u.s.state.tasks {
		if t.UserID == id {
			return store.NewStoreError("user", "delete", "still referenced by tasks", store.ErrInvalidEntity)
		}
	}
	for _, p := range u.s.state.projects {
		if p.UserID == id {
			return store.NewStoreError("user", "delete", "still referenced by projects", store.ErrInvalidEntity)
		}
	}
	delete(u.s.state.users, id)
	return nil
}

type memTaskStore struct{ s *memSession }

func (t *memTaskStore) WithTx(*sql.Tx) store.TaskStore { return t }

func (t *memTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := t.s.check("tasks.create"); err != nil {
		return err
	}
	if err := t.checkRefs(task); err != nil {
		return err
	}
	t.s.state.tasks[task.ID] = cloneTask(task)
	return nil
}

func (t *memTaskStore) checkRefs(task *domain.Task) error {
	if _, ok := t.s.state.users[task.UserID]; !ok {
		return store.NewStoreError("task", "write", "unknown user", store.ErrInvalidEntity)
	}
	if task.ProjectID != nil {
		if _, ok := t.s.state.projects[*task.ProjectID]; !ok {
			return store.NewStoreError("task", "write", "unknown project", store.ErrInvalidEntity)
		}
	}
	return nil
}

func (t *memTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := t.s.state.tasks[id]
	if !ok {
		return nil, store.NotFound("task", "get", id, store.ErrTaskNotFound)
	}
	return cloneTask(task), nil
}

func (t *memTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	return t.filter(func(*domain.Task) bool { return true }), nil
}

func (t *memTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return t.filter(func(task *domain.Task) bool { return task.UserID == userID }), nil
}

func (t *memTaskStore) filter(keep func(*domain.Task) bool) []*domain.Task {
	out := make([]*domain.Task, 0)
	for _, task := range t.s.state.tasks {
		if keep(task) {
			out = append(out, cloneTask(task))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Task) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func (t *memTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := t.s.check("tasks.update"); err != nil {
		return err
	}
	stored, ok := t.s.state.tasks[task.ID]
	if !ok || stored.Version != task.Version {
		return store.Stale("task", task.ID, task.Version)
	}
	if err := t.checkRefs(task); err != nil {
		return err
	}
	task.Version++
	updated := cloneTask(task)
	updated.UserID = stored.UserID
	updated.Created = stored.Created
	t.s.state.tasks[task.ID] = updated
	return nil
}

func (t *memTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := t.s.check("tasks.delete"); err != nil {
		return err
	}
	if _, ok := t.s.state.tasks[id]; !ok {
		return store.NotFound("task", "delete", id, store.ErrTaskNotFound)
	}
	delete(t.s.state.tasks, id)
	return nil
}

func (t *memTaskStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := t.s.check("tasks.delete_by_user"); err != nil {
		return 0, err
	}
	var n int64
	for id, task := range t.s.state.tasks {
		if task.UserID == userID {
			delete(t.s.state.tasks, id)
			n++
		}
	}
	return n, nil
}

func (t *memTaskStore) ClearProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	if err := t.s.check("tasks.clear_project"); err != nil {
		return 0, err
	}
	return t.clear(func(pid uuid.UUID) bool { return pid == projectID }), nil
}

func (t *memTaskStore) ClearProjectsOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := t.s.check("tasks.clear_projects_owned_by"); err != nil {
		return 0, err
	}
	return t.clear(func(pid uuid.UUID) bool {
		p, ok := t.s.state.projects[pid]
		return ok && p.UserID == userID
	}), nil
}

func (t *memTaskStore) clear(match func(projectID uuid.UUID) bool) int64 {
	var n int64
	for _, task := range t.s.state.tasks {
		if task.ProjectID != nil && match(*task.ProjectID) {
			task.ProjectID = nil
			task.Version++
			n++
		}
	}
	return n
}

type memProjectStore struct{ s *memSession }

func (p *memProjectStore) WithTx(*sql.Tx) store.ProjectStore { return p }

func (p *memProjectStore) Create(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	if err := p.s.check("projects.create"); err != nil {
		return err
	}
	if _, ok := p.s.state.users[project.UserID]; !ok {
		return store.NewStoreError("project", "create", "unknown user", store.ErrInvalidEntity)
	}
	for _, existing := range p.s.state.projects {
		if existing.Name == project.Name {
			return store.NewStoreError("project", "create", "insert failed", store.ErrProjectNameExists)
		}
	}
	cp := *project
	p.s.state.projects[project.ID] = &cp
	return nil
}

func (p *memProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, ok := p.s.state.projects[id]
	if !ok {
		return nil, store.NotFound("project", "get", id, store.ErrProjectNotFound)
	}
	cp := *project
	return &cp, nil
}

func (p *memProjectStore) List(ctx context.Context) ([]*domain.Project, error) {
	return p.filter(func(*domain.Project) bool { return true }), nil
}

func (p *memProjectStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return p.filter(func(project *domain.Project) bool { return project.UserID == userID }), nil
}

func (p *memProjectStore) filter(keep func(*domain.Project) bool) []*domain.Project {
	out := make([]*domain.Project, 0)
	for _, project := range p.s.state.projects {
		if keep(project) {
			cp := *project
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Project) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func (p *memProjectStore) Update(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	if err := p.s.check("projects.update"); err != nil {
		return err
	}
	stored, ok := p.s.state.projects[project.ID]
	if !ok || stored.Version != project.Version {
		return store.Stale("project", project.ID, project.Version)
	}
	for id, existing := range p.s.state.projects {
		if id != project.ID && existing.Name == project.Name {
			return store.NewStoreError("project", "update", "update failed", store.ErrProjectNameExists)
		}
	}
	project.Version++
	cp := *project
	cp.UserID = stored.UserID
	cp.Created = stored.Created
	p.s.state.projects[project.ID] = &cp
	return nil
}

func (p *memProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := p.s.check("projects.delete"); err != nil {
		return err
	}
	if _, ok := p.s.state.projects[id]; !ok {
		return store.NotFound("project", "delete", id, store.ErrProjectNotFound)
	}
	for _, t := range p.s.state.tasks {
		if t.ProjectID != nil && *t.ProjectID == id {
			return store.NewStoreError("project", "delete", "still referenced by tasks", store.ErrInvalidEntity)
		}
	}
	delete(p.s.state.projects, id)
	return nil
}

func (p *memProjectStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := p.s.check("projects.delete_by_user"); err != nil {
		return 0, err
	}
	for _, t := range p.s.state.tasks {
		if t.ProjectID == nil {
			continue
		}
		if owner, ok := p.s.state.projects[*t.ProjectID]; ok && owner.UserID == userID {
			return 0, store.NewStoreError("project", "delete", "still referenced by tasks", store.ErrInvalidEntity)
		}
	}
	var n int64
	for id, project := range p.s.state.projects {
		if project.UserID == userID {
			delete(p.s.state.projects, id)
			n++
		}
	}
	return n, nil
}
