package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/store"
)

// Transactor implements store.Transactor on a *sql.DB. Each call to
// WithinTransaction borrows one connection from the pool for its lifetime.
type Transactor struct {
	db       *sql.DB
	users    *PostgresUserStore
	tasks    *PostgresTaskStore
	projects *PostgresProjectStore
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *sql.DB, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{
		db:       db,
		users:    NewPostgresUserStore(db, logger),
		tasks:    NewPostgresTaskStore(db, logger),
		projects: NewPostgresProjectStore(db, logger),
	}
}

// Ensure Transactor implements store.Transactor interface
var _ store.Transactor = (*Transactor)(nil)

// WithinTransaction implements store.Transactor.WithinTransaction
func (t *Transactor) WithinTransaction(ctx context.Context, fn store.SessionFn) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		session := &txSession{
			users:    t.users.WithTx(tx),
			tasks:    t.tasks.WithTx(tx),
			projects: t.projects.WithTx(tx),
		}
		return fn(ctx, session)
	})
}

type txSession struct {
	users    store.UserStore
	tasks    store.TaskStore
	projects store.ProjectStore
}

func (s *txSession) Users() store.UserStore       { return s.users }
func (s *txSession) Tasks() store.TaskStore       { return s.tasks }
func (s *txSession) Projects() store.ProjectStore { return s.projects }
