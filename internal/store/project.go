package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// ProjectStore defines the interface for project data persistence.
type ProjectStore interface {
	// Create saves a new project.
	// Returns ErrProjectNameExists if the name is already taken.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by ID.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// List returns every project ordered by creation time.
	List(ctx context.Context) ([]*domain.Project, error)

	// ListByUser returns the projects owned by userID.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)

	// Update renames a project when the stored version equals project.Version,
	// then increments project.Version.
	// Returns ErrVersionConflict when no row matches the id and version.
	Update(ctx context.Context, project *domain.Project) error

	// Delete removes a project by ID.
	// Returns ErrProjectNotFound if the project does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUser removes every project owned by userID.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// WithTx returns a ProjectStore that runs its statements on tx.
	WithTx(tx *sql.Tx) ProjectStore
}
