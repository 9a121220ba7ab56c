package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/redact"
	"github.com/phrazzld/tasker-api/internal/store"
)

// ProjectService provides project operations on behalf of an authenticated caller.
type ProjectService interface {
	FindByID(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Project, error)

	// FindAll lists every project. Admin only.
	FindAll(ctx context.Context, caller domain.Identity) ([]*domain.Project, error)

	// ListForUser lists the caller's own projects.
	ListForUser(ctx context.Context, caller domain.Identity) ([]*domain.Project, error)

	// Create stores a new project owned by the caller. A taken name yields
	// store.ErrProjectNameExists.
	Create(ctx context.Context, caller domain.Identity, name string) (*domain.Project, error)

	// Update renames the project when version matches the stored version.
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, name string, version int) (*domain.Project, error)

	// Delete detaches the project's tasks and removes the project in one transaction.
	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error
}

// ProjectServiceImpl implements the ProjectService interface
type ProjectServiceImpl struct {
	tx     store.Transactor
	events publisher
	logger *slog.Logger
}

// NewProjectService creates a new ProjectService. emitter may be nil.
func NewProjectService(tx store.Transactor, emitter events.EventEmitter, logger *slog.Logger) (*ProjectServiceImpl, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "project_service"))

	return &ProjectServiceImpl{
		tx:     tx,
		events: publisher{emitter: emitter, logger: logger},
		logger: logger,
	}, nil
}

var _ ProjectService = (*ProjectServiceImpl)(nil)

func loadOwnedProject(
	ctx context.Context,
	session store.Session,
	caller domain.Identity,
	id uuid.UUID,
) (*domain.Project, error) {
	project, err := session.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := resolveCaller(ctx, session, caller)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, user, project.UserID); err != nil {
		return nil, err
	}
	return project, nil
}

// FindByID retrieves a project by ID.
func (s *ProjectServiceImpl) FindByID(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Project, error) {
	var project *domain.Project
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		project, err = loadOwnedProject(ctx, session, caller, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve project: %w", err)
	}
	return project, nil
}

// FindAll lists every project.
func (s *ProjectServiceImpl) FindAll(ctx context.Context, caller domain.Identity) ([]*domain.Project, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	var projects []*domain.Project
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		projects, err = session.Projects().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ListForUser lists the caller's projects.
func (s *ProjectServiceImpl) ListForUser(ctx context.Context, caller domain.Identity) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		user, err := resolveCaller(ctx, session, caller)
		if err != nil {
			return err
		}
		projects, err = session.Projects().ListByUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Create stores a new project owned by the caller.
func (s *ProjectServiceImpl) Create(ctx context.Context, caller domain.Identity, name string) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var project *domain.Project
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		user, err := resolveCaller(ctx, session, caller)
		if err != nil {
			return err
		}
		project, err = domain.NewProject(user.ID, name)
		if err != nil {
			return err
		}
		return session.Projects().Create(ctx, project)
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("attempted to create project with existing name", slog.String("name", name))
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Info("project created", slog.String("project_id", project.ID.String()))
	s.events.publish(ctx, events.ProjectCreated, project.ID, caller.Name, nil)
	return project, nil
}

// Update renames the project when version matches.
func (s *ProjectServiceImpl) Update(
	ctx context.Context,
	caller domain.Identity,
	id uuid.UUID,
	name string,
	version int,
) (*domain.Project, error) {
	var project *domain.Project
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		project, err = loadOwnedProject(ctx, session, caller, id)
		if err != nil {
			return err
		}
		if project.Version != version {
			return store.Stale("project", id, version)
		}
		project.Name = name
		if err := project.Validate(); err != nil {
			return err
		}
		return session.Projects().Update(ctx, project)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("project update failed",
			redact.ErrorAttr(err),
			slog.String("project_id", id.String()))
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.events.publish(ctx, events.ProjectUpdated, id, caller.Name, nil)
	return project, nil
}

type projectDeletion struct {
	TasksDetached int64 `json:"tasks_detached"`
}

// Delete clears the project reference on dependent tasks, then deletes the project.
func (s *ProjectServiceImpl) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var summary projectDeletion
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		if _, err := loadOwnedProject(ctx, session, caller, id); err != nil {
			return err
		}
		var err error
		if summary.TasksDetached, err = session.Tasks().ClearProject(ctx, id); err != nil {
			return err
		}
		return session.Projects().Delete(ctx, id)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Debug("project delete rolled back", redact.ErrorAttr(err), slog.String("project_id", id.String()))
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	log.Info("project deleted",
		slog.String("project_id", id.String()),
		slog.Int64("tasks_detached", summary.TasksDetached))
	s.events.publish(ctx, events.ProjectDeleted, id, caller.Name, summary)
	return nil
}
