package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

const projectColumns = "id, name, user_id, version, created_at"

// PostgresProjectStore implements the store.ProjectStore interface using PostgreSQL.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProjectStore creates a new PostgresProjectStore.
// If logger is nil, a default logger will be used.
func NewPostgresProjectStore(db store.DBTX, logger *slog.Logger) *PostgresProjectStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

// Ensure PostgresProjectStore implements store.ProjectStore interface
var _ store.ProjectStore = (*PostgresProjectStore)(nil)

// WithTx implements store.ProjectStore.WithTx
func (s *PostgresProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return &PostgresProjectStore{db: tx, logger: s.logger}
}

// Create implements store.ProjectStore.Create
func (s *PostgresProjectStore) Create(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		project.ID,
		project.Name,
		project.UserID,
		project.Version,
		project.Created,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to create project",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return store.NewStoreError("project", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.ProjectStore.GetByID
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("project", "get", id, store.ErrProjectNotFound)
		}
		return nil, store.NewStoreError("project", "get", "query failed", MapError(err))
	}
	return project, nil
}

// List implements store.ProjectStore.List
func (s *PostgresProjectStore) List(ctx context.Context) ([]*domain.Project, error) {
	return s.query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
}

// ListByUser implements store.ProjectStore.ListByUser
func (s *PostgresProjectStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return s.query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (s *PostgresProjectStore) query(ctx context.Context, query string, args ...any) ([]*domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("project", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, store.NewStoreError("project", "list", "scan failed", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("project", "list", "iteration failed", MapError(err))
	}
	return projects, nil
}

// Update implements store.ProjectStore.Update
func (s *PostgresProjectStore) Update(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	var version int
	err := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET name = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version`,
		project.Name,
		project.ID,
		project.Version,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Stale("project", project.ID, project.Version)
		}
		return store.NewStoreError("project", "update", "update failed", MapError(err))
	}

	project.Version = version
	return nil
}

// Delete implements store.ProjectStore.Delete
func (s *PostgresProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("project", "delete", "delete failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return store.NewStoreError("project", "delete", "delete failed", err)
	}
	if n == 0 {
		return store.NotFound("project", "delete", id, store.ErrProjectNotFound)
	}
	return nil
}

// DeleteByUser implements store.ProjectStore.DeleteByUser
func (s *PostgresProjectStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE user_id = $1`, userID)
	if err != nil {
		return 0, store.NewStoreError("project", "delete", "delete failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return 0, store.NewStoreError("project", "delete", "delete failed", err)
	}
	return n, nil
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.UserID,
		&project.Version,
		&project.Created,
	); err != nil {
		return nil, err
	}
	project.Created = project.Created.UTC()
	return &project, nil
}
