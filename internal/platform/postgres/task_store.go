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

const taskColumns = "id, title, description, priority, user_id, project_id, complete, version, created_at"

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.UserID,
		task.ProjectID,
		task.Complete,
		task.Version,
		task.Created,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("task", "get", id, store.ErrTaskNotFound)
		}
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	return task, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	return s.query(ctx, "list", `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return s.query(ctx, "list",
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (s *PostgresTaskStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("task", op, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", op, "scan failed", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", op, "iteration failed", MapError(err))
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	var version int
	err := s.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, project_id = $4, complete = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version`,
		task.Title,
		task.Description,
		task.Priority,
		task.ProjectID,
		task.Complete,
		task.ID,
		task.Version,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Stale("task", task.ID, task.Version)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "update", "update failed", MapError(err))
	}

	task.Version = version
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.exec(ctx, "delete", `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.NotFound("task", "delete", id, store.ErrTaskNotFound)
	}
	return nil
}

// DeleteByUser implements store.TaskStore.DeleteByUser
func (s *PostgresTaskStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.exec(ctx, "delete", `DELETE FROM tasks WHERE user_id = $1`, userID)
}

// ClearProject implements store.TaskStore.ClearProject
func (s *PostgresTaskStore) ClearProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return s.exec(ctx, "update", `
		UPDATE tasks SET project_id = NULL, version = version + 1
		WHERE project_id = $1`, projectID)
}

// ClearProjectsOwnedBy implements store.TaskStore.ClearProjectsOwnedBy
func (s *PostgresTaskStore) ClearProjectsOwnedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.exec(ctx, "update", `
		UPDATE tasks SET project_id = NULL, version = version + 1
		WHERE project_id IN (SELECT id FROM projects WHERE user_id = $1)`, userID)
}

func (s *PostgresTaskStore) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("task statement failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("task", op, "statement failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return 0, store.NewStoreError("task", op, "statement failed", err)
	}
	return n, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.UserID,
		&task.ProjectID,
		&task.Complete,
		&task.Version,
		&task.Created,
	); err != nil {
		return nil, err
	}
	task.Created = task.Created.UTC()
	return &task, nil
}
