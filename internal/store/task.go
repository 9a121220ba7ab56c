package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns every task ordered by creation time.
	List(ctx context.Context) ([]*domain.Task, error)

	// ListByUser returns the tasks owned by userID.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update writes the mutable fields when the stored version equals
	// task.Version, then increments task.Version.
	// Returns ErrVersionConflict when no row matches the id and version.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUser removes every task owned by userID and reports how many went.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// ClearProject detaches every task from projectID, bumping their versions.
	ClearProject(ctx context.Context, projectID uuid.UUID) (int64, error)

	// ClearProjectsOwnedBy detaches every task that references a project owned by userID.
	ClearProjectsOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore that runs its statements on tx.
	WithTx(tx *sql.Tx) TaskStore
}
