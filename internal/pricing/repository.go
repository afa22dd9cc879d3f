package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, r *Rule) error
	List(ctx context.Context, filter Filter) ([]*Rule, int, error)
	SetActive(ctx context.Context, id string, active bool) (*Rule, error)

	// ListApplicable returns active rules that are global or scoped to typeID, oldest first.
	ListApplicable(ctx context.Context, typeID string) ([]*Rule, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var ruleColumns = []string{
	"id", "rule_type", "scope_type_id", "price", "applies_fri", "applies_sat", "applies_sun",
	"start_date", "end_date", "priority", "is_active", "created_at",
}

func scanRule(row pgx.Row, extra ...any) (*Rule, error) {
	var r Rule
	dest := []any{
		&r.ID, &r.Type, &r.ScopeTypeID, &r.Price, &r.AppliesFri, &r.AppliesSat, &r.AppliesSun,
		&r.StartDate, &r.EndDate, &r.Priority, &r.IsActive, &r.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *pgxRepository) Create(ctx context.Context, rule *Rule) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.price_rules").
		Columns("rule_type", "scope_type_id", "price", "applies_fri", "applies_sat", "applies_sun",
			"start_date", "end_date", "priority", "is_active").
		Values(rule.Type, rule.ScopeTypeID, rule.Price, rule.AppliesFri, rule.AppliesSat, rule.AppliesSun,
			rule.StartDate, rule.EndDate, rule.Priority, rule.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create price rule query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&rule.ID, &rule.CreatedAt); err != nil {
		return fmt.Errorf("create price rule failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Rule, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(ruleColumns, "count(*) OVER() AS total_count")...).
		From("public.price_rules")

	if filter.ScopeTypeID != "" {
		query = query.Where(squirrel.Eq{"scope_type_id": filter.ScopeTypeID})
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

	sql, args, err := query.OrderBy("priority ASC", "created_at ASC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list price rules query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list price rules failed: %w", err)
	}
	defer rows.Close()

	var rules []*Rule
	var total int
	for rows.Next() {
		rule, err := scanRule(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan price rule failed: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate price rules failed: %w", err)
	}
	return rules, total, nil
}

func (r *pgxRepository) SetActive(ctx context.Context, id string, active bool) (*Rule, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.price_rules").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(ruleColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update price rule query failed: %w", err)
	}

	rule, err := scanRule(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update price rule failed: %w", err)
	}
	return rule, nil
}

func (r *pgxRepository) ListApplicable(ctx context.Context, typeID string) ([]*Rule, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(ruleColumns...).
		From("public.price_rules").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Or{
			squirrel.Eq{"scope_type_id": nil},
			squirrel.Eq{"scope_type_id": typeID},
		}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build applicable price rules query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applicable price rules failed: %w", err)
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price rule failed: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rules failed: %w", err)
	}
	return rules, nil
}
