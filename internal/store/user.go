package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user. The user must already carry a HashedPassword.
	// Returns ErrUserNameExists if the name is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByName retrieves a user by their unique name.
	// Returns ErrUserNotFound if the user does not exist.
	GetByName(ctx context.Context, name string) (*domain.User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)

	// Update writes name, roles and hashed password when the stored version
	// equals user.Version, then increments user.Version.
	// Returns ErrVersionConflict when no row matches the id and version.
	// Returns ErrUserNameExists if renaming onto an existing name.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore that runs its statements on tx.
	WithTx(tx *sql.Tx) UserStore
}
