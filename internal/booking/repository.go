package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/lodging-booking-backend/internal/audit"
	"github.com/nekogravitycat/lodging-booking-backend/internal/db"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

const overlapConstraint = "bookings_no_overlap"

// Tx is the set of operations available inside one unit of work.
type Tx interface {
	// LockResource serialises writers of one resource until the unit of work ends.
	LockResource(ctx context.Context, resourceID string) error
	// HasOverlap checks if there is any blocking booking for the resource in [start, end).
	// excludeBookingID is used during reschedules to ignore the booking itself.
	HasOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, b *Booking) error
	// GetForUpdate row-locks the booking without waiting.
	GetForUpdate(ctx context.Context, id string) (*Booking, error)
	// Update persists b if its version is unchanged and bumps the version.
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id string) error
	Audit(ctx context.Context, e *audit.Entry) error
}

type Repository interface {
	// RunInTx runs fn in one unit of work, committed only if fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	HasOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error)
	// ListInWindow returns blocking bookings of a resource intersecting [start, end).
	ListInWindow(ctx context.Context, resourceID string, start, end time.Time) ([]*Booking, error)
	AuditTrail(ctx context.Context, bookingID string) ([]*audit.Entry, error)
}

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool     *pgxpool.Pool
	runner   *db.TxRunner
	recorder audit.Recorder
}

func NewPgxRepository(pool *pgxpool.Pool, runner *db.TxRunner, recorder audit.Recorder) Repository {
	return &pgxRepository{pool: pool, runner: runner, recorder: recorder}
}

var bookingColumns = []string{
	"id", "kind", "resource_id", "user_id", "confirmation_code", "interval_start", "interval_end",
	"details", "status", "payment_status", "subtotal", "discount", "total_amount", "promo_code",
	"special_requests", "version", "created_at", "updated_at",
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	var details []byte
	dest := []any{
		&b.ID, &b.Kind, &b.ResourceID, &b.UserID, &b.ConfirmationCode, &b.StartTime, &b.EndTime,
		&details, &b.Status, &b.PaymentStatus, &b.Subtotal, &b.Discount, &b.TotalAmount, &b.PromoCode,
		&b.SpecialRequests, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	d, err := DecodeDetails(b.Kind, details)
	if err != nil {
		return nil, fmt.Errorf("decode booking details failed: %w", err)
	}
	b.Details = d
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func (r *pgxRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return r.runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgxTx{tx: tx, recorder: r.recorder})
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return getByID(ctx, r.pool, id, false)
}

func getByID(ctx context.Context, q queryer, id string, forUpdate bool) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE NOWAIT")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() AS total_count")...).
		From("public.bookings")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": filter.ResourceID})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.StartTime != nil {
		query = query.Where(squirrel.Gt{"interval_end": *filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.Lt{"interval_start": *filter.EndTime})
	}

	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("interval_start "+orderDir, "id")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, total, nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	return hasOverlap(ctx, r.pool, resourceID, start, end, excludeBookingID)
}

func overlapPredicate(resourceID string, start, end time.Time) squirrel.And {
	return squirrel.And{
		squirrel.Eq{"resource_id": resourceID},
		squirrel.NotEq{"status": StatusCancelled},
		squirrel.Lt{"interval_start": end},
		squirrel.Gt{"interval_end": start},
	}
}

func hasOverlap(ctx context.Context, q queryer, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	where := overlapPredicate(resourceID, start, end)
	if excludeBookingID != "" {
		where = append(where, squirrel.NotEq{"id": excludeBookingID})
	}

	sub, args, err := psql.Select("1").From("public.bookings").Where(where).ToSql()
	if err != nil {
		return false, fmt.Errorf("build overlap query failed: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) ListInWindow(ctx context.Context, resourceID string, start, end time.Time) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(overlapPredicate(resourceID, start, end)).
		OrderBy("interval_start").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build window query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings in window failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) AuditTrail(ctx context.Context, bookingID string) ([]*audit.Entry, error) {
	return r.recorder.ListByBooking(ctx, bookingID)
}

type pgxTx struct {
	tx       pgx.Tx
	recorder audit.Recorder
}

func (t *pgxTx) LockResource(ctx context.Context, resourceID string) error {
	if _, err := t.tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", resourceID); err != nil {
		return fmt.Errorf("lock resource failed: %w", err)
	}
	return nil
}

func (t *pgxTx) HasOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	return hasOverlap(ctx, t.tx, resourceID, start, end, excludeBookingID)
}

func (t *pgxTx) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM public.bookings WHERE confirmation_code = $1)", code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check confirmation code failed: %w", err)
	}
	return exists, nil
}

func (t *pgxTx) Insert(ctx context.Context, b *Booking) error {
	details, err := json.Marshal(b.Details)
	if err != nil {
		return fmt.Errorf("encode booking details failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"kind", "resource_id", "user_id", "confirmation_code", "interval_start", "interval_end",
			"details", "status", "payment_status", "subtotal", "discount", "total_amount", "promo_code",
			"special_requests", "created_at", "updated_at",
		).
		Values(
			b.Kind, b.ResourceID, b.UserID, b.ConfirmationCode, b.StartTime, b.EndTime,
			string(details), b.Status, b.PaymentStatus, b.Subtotal, b.Discount, b.TotalAmount, b.PromoCode,
			b.SpecialRequests, b.CreatedAt, b.UpdatedAt,
		).
		Suffix("RETURNING id, version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := t.tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Version); err != nil {
		switch {
		case db.IsConstraintViolation(err, pgerrcode.ExclusionViolation, overlapConstraint):
			return ErrResourceUnavailable
		case db.IsConstraintViolation(err, pgerrcode.UniqueViolation, ""):
			// A concurrent insert took the same code after our existence check.
			return apperror.Wrap(err, apperror.ErrConcurrentModification.Code, apperror.ErrConcurrentModification.Kind, apperror.ErrConcurrentModification.Message)
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (t *pgxTx) GetForUpdate(ctx context.Context, id string) (*Booking, error) {
	return getByID(ctx, t.tx, id, true)
}

func (t *pgxTx) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("payment_status", b.PaymentStatus).
		Set("interval_start", b.StartTime).
		Set("interval_end", b.EndTime).
		Set("subtotal", b.Subtotal).
		Set("discount", b.Discount).
		Set("total_amount", b.TotalAmount).
		Set("updated_at", b.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := t.tx.QueryRow(ctx, query, args...).Scan(&b.Version); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperror.ErrConcurrentModification
		case db.IsConstraintViolation(err, pgerrcode.ExclusionViolation, overlapConstraint):
			return ErrResourceUnavailable
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}

func (t *pgxTx) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgxTx) Audit(ctx context.Context, e *audit.Entry) error {
	return t.recorder.Record(ctx, t.tx, e)
}
