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
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// UserDraft carries the caller-supplied fields of a user.
// Password is read only by Create; Version only by Update.
type UserDraft struct {
	Name     string
	Password string
	Roles    []string
	Version  int
}

// UserService provides user management operations.
type UserService interface {
	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// FindAll lists every user.
	FindAll(ctx context.Context) ([]*domain.User, error)

	// FindByName retrieves a user by unique name.
	FindByName(ctx context.Context, name string) (*domain.User, error)

	// Current returns the user named by the caller's token subject.
	Current(ctx context.Context, caller domain.Identity) (*domain.User, error)

	// Create hashes the password and stores a new user at version 0.
	Create(ctx context.Context, caller domain.Identity, draft UserDraft) (*domain.User, error)

	// Update changes name and roles when draft.Version matches the stored
	// version. The stored password hash is never changed here.
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, draft UserDraft) (*domain.User, error)

	// Delete removes the user with their tasks and projects in one transaction.
	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error

	// ChangePassword replaces the caller's password after checking the current one.
	ChangePassword(ctx context.Context, caller domain.Identity, current, next string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	tx       store.Transactor
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	events   publisher
	logger   *slog.Logger
}

// NewUserService creates a new UserService. emitter may be nil.
func NewUserService(
	tx store.Transactor,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "user_service"))

	return &UserServiceImpl{
		tx:       tx,
		hasher:   hasher,
		verifier: verifier,
		events:   publisher{emitter: emitter, logger: logger},
		logger:   logger,
	}, nil
}

var _ UserService = (*UserServiceImpl)(nil)

// FindByID retrieves a user by their ID
func (s *UserServiceImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		user, err = session.Users().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// FindAll lists every user ordered by creation time.
func (s *UserServiceImpl) FindAll(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		users, err = session.Users().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// FindByName retrieves a user by their unique name
func (s *UserServiceImpl) FindByName(ctx context.Context, name string) (*domain.User, error) {
	var user *domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		user, err = session.Users().GetByName(ctx, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user by name: %w", err)
	}
	return user, nil
}

// Current returns the stored user behind the caller's identity.
func (s *UserServiceImpl) Current(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	var user *domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		user, err = resolveCaller(ctx, session, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user. A taken name yields store.ErrUserNameExists.
func (s *UserServiceImpl) Create(ctx context.Context, caller domain.Identity, draft UserDraft) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(draft.Name, draft.Password, draft.Roles)
	if err != nil {
		return nil, err
	}

	// Hashed outside the transaction.
	user.HashedPassword, err = s.hasher.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.Password = ""

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		return session.Users().Create(ctx, user)
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("attempted to create user with existing name", slog.String("name", draft.Name))
		} else {
			log.Error("failed to save user", redact.ErrorAttr(err), slog.String("name", draft.Name))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	s.events.publish(ctx, events.UserCreated, user.ID, caller.Name, nil)
	return user, nil
}

// Update applies draft to the user when draft.Version matches the stored version.
func (s *UserServiceImpl) Update(
	ctx context.Context,
	caller domain.Identity,
	id uuid.UUID,
	draft UserDraft,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var user *domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		user, err = session.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Version != draft.Version {
			return store.Stale("user", id, draft.Version)
		}

		user.Name = draft.Name
		if draft.Roles != nil {
			user.Roles = domain.NormalizeRoles(draft.Roles)
		}
		if err := user.Validate(); err != nil {
			return err
		}

		return session.Users().Update(ctx, user)
	})
	if err != nil {
		log.Debug("user update failed", redact.ErrorAttr(err), slog.String("user_id", id.String()))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.events.publish(ctx, events.UserUpdated, id, caller.Name, nil)
	return user, nil
}

type userDeletion struct {
	TasksDeleted    int64 `json:"tasks_deleted"`
	TasksDetached   int64 `json:"tasks_detached"`
	ProjectsDeleted int64 `json:"projects_deleted"`
}

// Delete removes the user and everything the user owns. The steps run in
// order inside one transaction: existence check, owned tasks, references from
// other users' tasks to the user's projects, owned projects, the user.
func (s *UserServiceImpl) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var summary userDeletion
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		if _, err := session.Users().GetByID(ctx, id); err != nil {
			return err
		}

		var err error
		if summary.TasksDeleted, err = session.Tasks().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if summary.TasksDetached, err = session.Tasks().ClearProjectsOwnedBy(ctx, id); err != nil {
			return err
		}
		if summary.ProjectsDeleted, err = session.Projects().DeleteByUser(ctx, id); err != nil {
			return err
		}
		return session.Users().Delete(ctx, id)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("user delete rolled back", redact.ErrorAttr(err), slog.String("user_id", id.String()))
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.Int64("tasks_deleted", summary.TasksDeleted),
		slog.Int64("tasks_detached", summary.TasksDetached),
		slog.Int64("projects_deleted", summary.ProjectsDeleted))
	s.events.publish(ctx, events.UserDeleted, id, caller.Name, summary)
	return nil
}

// ChangePassword verifies current against the caller's stored hash and stores
// the hash of next. A wrong current password yields ErrPasswordMismatch.
func (s *UserServiceImpl) ChangePassword(
	ctx context.Context,
	caller domain.Identity,
	current, next string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if next == "" {
		return nil, domain.NewValidationError("password", "cannot be empty", domain.ErrEmptyPassword)
	}
	if len(next) > 72 {
		return nil, domain.NewValidationError("password", "must be at most 72 characters long", domain.ErrPasswordTooLong)
	}
	hashed, err := s.hasher.Hash(next)
	if err != nil {
		log.Error("failed to hash password", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to change password: %w", err)
	}

	var user *domain.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		var err error
		user, err = resolveCaller(ctx, session, caller)
		if err != nil {
			return err
		}
		if err := s.verifier.Compare(user.HashedPassword, current); err != nil {
			return ErrPasswordMismatch
		}
		user.HashedPassword = hashed
		return session.Users().Update(ctx, user)
	})
	if err != nil {
		log.Debug("password change failed", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to change password: %w", err)
	}

	log.Info("password changed", slog.String("user_id", user.ID.String()))
	s.events.publish(ctx, events.UserPasswordChanged, user.ID, caller.Name, nil)
	return user, nil
}
