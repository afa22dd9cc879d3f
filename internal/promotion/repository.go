package promotion

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	// FindByCode looks a promotion up case-insensitively.
	FindByCode(ctx context.Context, code string) (*Promotion, error)
	List(ctx context.Context, page, pageSize int) ([]*Promotion, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var promotionColumns = []string{"id", "code", "discount_type", "discount_value", "start_date", "end_date", "is_active", "created_at"}

func scanPromotion(row pgx.Row, extra ...any) (*Promotion, error) {
	var p Promotion
	dest := []any{&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *Promotion) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.promotions").
		Columns("code", "discount_type", "discount_value", "start_date", "end_date", "is_active").
		Values(p.Code, p.DiscountType, p.DiscountValue, p.StartDate, p.EndDate, p.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create promotion query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateCode
		}
		return fmt.Errorf("create promotion failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) FindByCode(ctx context.Context, code string) (*Promotion, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(promotionColumns...).
		From("public.promotions").
		Where(squirrel.Expr("upper(code) = upper(?)", code)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find promotion query failed: %w", err)
	}

	p, err := scanPromotion(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find promotion failed: %w", err)
	}
	return p, nil
}

func (r *pgxRepository) List(ctx context.Context, page, pageSize int) ([]*Promotion, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(append(promotionColumns, "count(*) OVER() AS total_count")...).
		From("public.promotions").
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list promotions query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list promotions failed: %w", err)
	}
	defer rows.Close()

	var promos []*Promotion
	var total int
	for rows.Next() {
		p, err := scanPromotion(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan promotion failed: %w", err)
		}
		promos = append(promos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate promotions failed: %w", err)
	}
	return promos, total, nil
}
