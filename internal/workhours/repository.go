package workhours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetForEmployee(ctx context.Context, employeeID string, day time.Weekday) (*Template, error)
	// FirstActiveForDay returns the active template with the lowest employee id for day.
	FirstActiveForDay(ctx context.Context, day time.Weekday) (*Template, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Template, error)
	Upsert(ctx context.Context, t *Template) error
	Delete(ctx context.Context, employeeID string, day time.Weekday) error
}

var templateColumns = []string{
	"id", "employee_id", "day_of_week", "start_time", "end_time", "break_start", "break_end", "is_active",
}

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	var day int16
	if err := row.Scan(
		&t.ID, &t.EmployeeID, &day, &t.StartTime, &t.EndTime, &t.BreakStart, &t.BreakEnd, &t.IsActive,
	); err != nil {
		return nil, err
	}
	t.DayOfWeek = time.Weekday(day)
	return &t, nil
}

func (r *pgxRepository) getOne(ctx context.Context, q squirrel.SelectBuilder) (*Template, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get template query failed: %w", err)
	}

	t, err := scanTemplate(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get template failed: %w", err)
	}
	return t, nil
}

func (r *pgxRepository) GetForEmployee(ctx context.Context, employeeID string, day time.Weekday) (*Template, error) {
	return r.getOne(ctx, r.psql.Select(templateColumns...).
		From("public.employee_availability").
		Where(squirrel.Eq{"employee_id": employeeID, "day_of_week": int(day)}))
}

func (r *pgxRepository) FirstActiveForDay(ctx context.Context, day time.Weekday) (*Template, error) {
	return r.getOne(ctx, r.psql.Select(templateColumns...).
		From("public.employee_availability").
		Where(squirrel.Eq{"day_of_week": int(day), "is_active": true}).
		OrderBy("employee_id ASC", "id ASC").
		Limit(1))
}

func (r *pgxRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*Template, error) {
	query, args, err := r.psql.Select(templateColumns...).
		From("public.employee_availability").
		Where(squirrel.Eq{"employee_id": employeeID}).
		OrderBy("day_of_week ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list templates query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template failed: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) Upsert(ctx context.Context, t *Template) error {
	query, args, err := r.psql.Insert("public.employee_availability").
		Columns("employee_id", "day_of_week", "start_time", "end_time", "break_start", "break_end", "is_active").
		Values(t.EmployeeID, int(t.DayOfWeek), t.StartTime, t.EndTime, t.BreakStart, t.BreakEnd, t.IsActive).
		Suffix(`ON CONFLICT (employee_id, day_of_week) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			break_start = EXCLUDED.break_start,
			break_end = EXCLUDED.break_end,
			is_active = EXCLUDED.is_active
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert template query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&t.ID); err != nil {
		return fmt.Errorf("upsert template failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, employeeID string, day time.Weekday) error {
	query, args, err := r.psql.Delete("public.employee_availability").
		Where(squirrel.Eq{"employee_id": employeeID, "day_of_week": int(day)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete template query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete template failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
