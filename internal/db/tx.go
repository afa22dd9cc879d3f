package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

// TxRunner executes units of work against the pool with a bounded duration.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner creates a TxRunner. Every transaction it opens is cancelled after timeout.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

// Run executes fn inside a READ COMMITTED transaction. The transaction is committed
// only when fn returns nil and is rolled back on error or panic. Every statement,
// including waits on locks, is bounded by the runner timeout.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return MapError(ctx, fmt.Errorf("begin transaction failed: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.Background())
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.Background())
		}
	}()

	ms := r.timeout.Milliseconds()
	if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)); err != nil {
		return MapError(ctx, fmt.Errorf("set statement timeout failed: %w", err))
	}

	if err = fn(ctx, tx); err != nil {
		return MapError(ctx, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return MapError(ctx, fmt.Errorf("commit transaction failed: %w", err))
	}
	return nil
}

// MapError converts driver and context failures into typed application errors.
// Errors that already carry a kind other than persistence_failure pass through
// untouched; persistence failures are re-examined for timeouts.
func MapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindPersistenceFailure {
		return err
	}

	if apperror.IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.Wrap(err, apperror.ErrTimeout.Code, apperror.ErrTimeout.Kind, apperror.ErrTimeout.Message)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.LockNotAvailable, pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return apperror.Wrap(err, apperror.ErrConcurrentModification.Code, apperror.ErrConcurrentModification.Kind, apperror.ErrConcurrentModification.Message)
		}
	}

	return apperror.Persistence(err)
}

// IsConstraintViolation reports whether err is a PostgreSQL error with the given
// code raised by the named constraint. An empty constraint matches any.
func IsConstraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
