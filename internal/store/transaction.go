package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/phrazzld/tasker-api/internal/store")

// TxFn is a function that executes within a database transaction.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes the given function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back.
// Otherwise, the transaction is committed.
// The transaction is always released before RunInTransaction returns.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) (err error) {
	ctx, span := tracer.Start(ctx, "store.transaction", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	log := logger.FromContext(ctx)
	start := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		metrics.ObserveTransaction(metrics.TxFailed, time.Since(start))
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			txErr := tx.Rollback()
			if txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			span.SetStatus(codes.Error, "panic")
			metrics.ObserveTransaction(metrics.TxRolledBack, time.Since(start))
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	err = fn(ctx, tx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		metrics.ObserveTransaction(metrics.TxRolledBack, time.Since(start))

		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		metrics.ObserveTransaction(metrics.TxFailed, time.Since(start))
		return fmt.Errorf("%w: failed to commit transaction: %w", ErrTransactionFailed, err)
	}

	metrics.ObserveTransaction(metrics.TxCommitted, time.Since(start))
	log.Debug("transaction committed successfully")
	return nil
}
