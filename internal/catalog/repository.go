package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, u *Unit) error
	GetByID(ctx context.Context, id string) (*Unit, error)
	List(ctx context.Context, filter Filter) ([]*Unit, int, error)
	// TypeSummary returns the kind and lowest base price among active units of a type.
	TypeSummary(ctx context.Context, typeID string) (*TypeSummary, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var unitColumns = []string{"id", "kind", "type_id", "name", "base_price", "capacity", "is_active", "created_at"}

func (r *pgxRepository) Create(ctx context.Context, u *Unit) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.resource_units").
		Columns("kind", "type_id", "name", "base_price", "capacity", "is_active").
		Values(u.Kind, u.TypeID, u.Name, u.BasePrice, u.Capacity, u.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create unit query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		return fmt.Errorf("create unit failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Unit, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(unitColumns...).
		From("public.resource_units").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get unit query failed: %w", err)
	}

	var u Unit
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Kind, &u.TypeID, &u.Name, &u.BasePrice, &u.Capacity, &u.IsActive, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get unit failed: %w", err)
	}
	return &u, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Unit, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(unitColumns, "count(*) OVER() AS total_count")...).
		From("public.resource_units")

	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.TypeID != "" {
		query = query.Where(squirrel.Eq{"type_id": filter.TypeID})
	}
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"is_active": true})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	sql, args, err := query.OrderBy("kind", "name").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list units query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list units failed: %w", err)
	}
	defer rows.Close()

	var units []*Unit
	var total int
	for rows.Next() {
		var u Unit
		if err := rows.Scan(
			&u.ID, &u.Kind, &u.TypeID, &u.Name, &u.BasePrice, &u.Capacity, &u.IsActive, &u.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan unit failed: %w", err)
		}
		units = append(units, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate units failed: %w", err)
	}

	return units, total, nil
}

func (r *pgxRepository) TypeSummary(ctx context.Context, typeID string) (*TypeSummary, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("type_id", "kind", "base_price").
		From("public.resource_units").
		Where(squirrel.Eq{"type_id": typeID, "is_active": true}).
		OrderBy("base_price ASC", "created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build type summary query failed: %w", err)
	}

	var s TypeSummary
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.TypeID, &s.Kind, &s.BasePrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("get type summary failed: %w", err)
	}
	return &s, nil
}
