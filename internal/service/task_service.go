package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/redact"
	"github.com/phrazzld/tasker-api/internal/store"
)

// TaskService provides task operations on behalf of an authenticated caller.
// Non-admin callers may only see and change their own tasks.
type TaskService interface {
	FindByID(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Task, error)

	// FindAll lists every task. Admin only.
	FindAll(ctx context.Context, caller domain.Identity) ([]*domain.Task, error)

	// ListForUser lists the caller's own tasks.
	ListForUser(ctx context.Context, caller domain.Identity) ([]*domain.Task, error)

	// Create stores a new task owned by the caller. A referenced project must
	// exist and be accessible to the caller.
	Create(ctx context.Context, caller domain.Identity, draft domain.TaskDraft) (*domain.Task, error)

	// Update applies draft when version matches the stored version.
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, draft domain.TaskDraft, version int) (*domain.Task, error)

	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error

	// SetComplete stamps or clears the completion time.
	SetComplete(ctx context.Context, caller domain.Identity, id uuid.UUID, complete bool) (*domain.Task, error)
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	tx     store.Transactor
	events publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a new TaskService. emitter may be nil.
func NewTaskService(tx store.Transactor, emitter events.EventEmitter, logger *slog.Logger) (*TaskServiceImpl, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_service"))

	return &TaskServiceImpl{
		tx:     tx,
		events: publisher{emitter: emitter, logger: logger},
		logger: logger,
		now:    domain.Now,
	}, nil
}

var _ TaskService = (*TaskServiceImpl)(nil)

// loadOwnedTask loads the task and checks the caller may act on it.
func loadOwnedTask(
	ctx context.Context,
	session store.Session,
	caller domain.Identity,
	id uuid.UUID,
) (*domain.Task, *domain.User, error) {
	task, err := session.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	user, err := resolveCaller(ctx, session, caller)
	if err != nil {
		return nil, nil, err
	}
	if err := Authorize(caller, user, task.UserID); err != nil {
		return nil, nil, err
	}
	return task, user, nil
}

// checkProject verifies that a referenced project exists and is accessible.
func checkProject(
	ctx context.Context,
	session store.Session,
	caller domain.Identity,
	user *domain.User,
	projectID *uuid.UUID,
) error {
	if projectID == nil {
		return nil
	}
	project, err := session.Projects().GetByID(ctx, *projectID)
	if err != nil {
		return err
	}
	return Authorize(caller, user, project.UserID)
}

// FindByID retrieves a task by ID.
func (s *TaskServiceImpl) FindByID(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		task, _, err = loadOwnedTask(ctx, session, caller, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return task, nil
}

// FindAll lists every task.
func (s *TaskServiceImpl) FindAll(ctx context.Context, caller domain.Identity) ([]*domain.Task, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	var tasks []*domain.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		tasks, err = session.Tasks().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListForUser lists the caller's tasks.
func (s *TaskServiceImpl) ListForUser(ctx context.Context, caller domain.Identity) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		user, err := resolveCaller(ctx, session, caller)
		if err != nil {
			return err
		}
		tasks, err = session.Tasks().ListByUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create stores a new task owned by the caller.
func (s *TaskServiceImpl) Create(
	ctx context.Context,
	caller domain.Identity,
	draft domain.TaskDraft,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var task *domain.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		user, err := resolveCaller(ctx, session, caller)
		if err != nil {
			return err
		}
		if err := checkProject(ctx, session, caller, user, draft.ProjectID); err != nil {
			return err
		}
		task, err = domain.NewTask(user.ID, draft)
		if err != nil {
			return err
		}
		return session.Tasks().Create(ctx, task)
	})
	if err != nil {
		log.Debug("task create failed", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created", slog.String("task_id", task.ID.String()))
	s.events.publish(ctx, events.TaskCreated, task.ID, caller.Name, nil)
	return task, nil
}

// Update applies draft to the task when version matches.
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	caller domain.Identity,
	id uuid.UUID,
	draft domain.TaskDraft,
	version int,
) (*domain.Task, error) {
	var task *domain.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var (
			user *domain.User
			err  error
		)
		task, user, err = loadOwnedTask(ctx, session, caller, id)
		if err != nil {
			return err
		}
		if task.Version != version {
			return store.Stale("task", id, version)
		}
		if err := checkProject(ctx, session, caller, user, draft.ProjectID); err != nil {
			return err
		}
		task.Apply(draft)
		return session.Tasks().Update(ctx, task)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("task update failed",
			redact.ErrorAttr(err),
			slog.String("task_id", id.String()))
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.events.publish(ctx, events.TaskUpdated, id, caller.Name, nil)
	return task, nil
}

// Delete removes a task.
func (s *TaskServiceImpl) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		if _, _, err := loadOwnedTask(ctx, session, caller, id); err != nil {
			return err
		}
		return session.Tasks().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted", slog.String("task_id", id.String()))
	s.events.publish(ctx, events.TaskDeleted, id, caller.Name, nil)
	return nil
}

// SetComplete stamps the completion time, or clears it when complete is false.
// Completing an already complete task keeps the original timestamp.
func (s *TaskServiceImpl) SetComplete(
	ctx context.Context,
	caller domain.Identity,
	id uuid.UUID,
	complete bool,
) (*domain.Task, error) {
	var task *domain.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		task, _, err = loadOwnedTask(ctx, session, caller, id)
		if err != nil {
			return err
		}
		switch {
		case complete && task.Complete == nil:
			now := s.now()
			task.Complete = &now
		case !complete:
			task.Complete = nil
		}
		return session.Tasks().Update(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set task completion: %w", err)
	}

	eventType := events.TaskReopened
	if complete {
		eventType = events.TaskCompleted
	}
	s.events.publish(ctx, eventType, id, caller.Name, nil)
	return task, nil
}
