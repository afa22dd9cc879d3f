package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Action string

const (
	ActionCreated         Action = "created"
	ActionStatusChanged   Action = "status_changed"
	ActionRescheduled     Action = "rescheduled"
	ActionCancelled       Action = "cancelled"
	ActionPaymentRecorded Action = "payment_recorded"
	ActionDeleted         Action = "deleted"
)

// Entry is one administrative record about a booking.
type Entry struct {
	ID        string
	ActorID   string
	ActorRole string
	Action    Action
	BookingID string
	Detail    string
	CreatedAt time.Time
}

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Recorder interface {
	// Record writes e through q, so it commits or rolls back together with the caller's transaction.
	Record(ctx context.Context, q Execer, e *Entry) error
	ListByBooking(ctx context.Context, bookingID string) ([]*Entry, error)
}

type pgxRecorder struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgxRecorder(pool *pgxpool.Pool, logger *zap.Logger) Recorder {
	return &pgxRecorder{pool: pool, logger: logger}
}

func insertQuery(e *Entry) (string, []any, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Insert("public.audit_logs").
		Columns("id", "actor_id", "actor_role", "action", "booking_id", "detail", "created_at").
		Values(e.ID, e.ActorID, e.ActorRole, e.Action, e.BookingID, e.Detail, e.CreatedAt).
		ToSql()
}

func (r *pgxRecorder) Record(ctx context.Context, q Execer, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query, args, err := insertQuery(e)
	if err != nil {
		return fmt.Errorf("build insert audit query failed: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry failed: %w", err)
	}

	// The entry commits or rolls back with the caller's transaction.
	r.logger.Info("audit entry staged",
		zap.String("action", string(e.Action)),
		zap.String("booking_id", e.BookingID),
		zap.String("actor_id", e.ActorID),
		zap.String("actor_role", e.ActorRole),
		zap.String("detail", e.Detail),
	)
	return nil
}

func (r *pgxRecorder) ListByBooking(ctx context.Context, bookingID string) ([]*Entry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "actor_id", "actor_role", "action", "booking_id", "detail", "created_at").
		From("public.audit_logs").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.BookingID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry failed: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries failed: %w", err)
	}
	return entries, nil
}
