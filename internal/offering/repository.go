package offering

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, o *Offering) error
	GetByID(ctx context.Context, id string) (*Offering, error)
	List(ctx context.Context, filter Filter) ([]*Offering, int, error)
	Update(ctx context.Context, o *Offering) error
}

var sortColumns = map[string]string{
	"created_at":  "created_at",
	"name":        "name",
	"price_cents": "price_cents",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, o *Offering) error {
	const query = `
		INSERT INTO public.services (name, description, duration_minutes, price_cents, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, o.Name, o.Description, o.DurationMinutes, o.PriceCents, o.IsActive).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create service failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Offering, error) {
	const query = `
		SELECT id, name, description, duration_minutes, price_cents, is_active, created_at, updated_at
		FROM public.services
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var o Offering
	if err := row.Scan(
		&o.ID, &o.Name, &o.Description, &o.DurationMinutes, &o.PriceCents, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get service failed: %w", err)
	}
	return &o, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Offering, int, error) {
	var args []interface{}
	queryBase := `
		SELECT id, name, description, duration_minutes, price_cents, is_active, created_at, updated_at,
			count(*) OVER() as total_count
		FROM public.services
		WHERE 1=1
	`
	paramIndex := 1

	if filter.Name != "" {
		queryBase += fmt.Sprintf(" AND name ILIKE $%d", paramIndex)
		args = append(args, "%"+filter.Name+"%")
		paramIndex++
	}
	if filter.IsActive != nil {
		queryBase += fmt.Sprintf(" AND is_active = $%d", paramIndex)
		args = append(args, *filter.IsActive)
		paramIndex++
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	queryBase += " ORDER BY " + orderBy + " " + orderDir + ", id"

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBase += fmt.Sprintf(" LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.pool.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list services failed: %w", err)
	}
	defer rows.Close()

	var result []*Offering
	var total int

	for rows.Next() {
		var o Offering
		if err := rows.Scan(
			&o.ID, &o.Name, &o.Description, &o.DurationMinutes, &o.PriceCents, &o.IsActive,
			&o.CreatedAt, &o.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan service failed: %w", err)
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate services failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, o *Offering) error {
	const query = `
		UPDATE public.services
		SET name = $1, description = $2, duration_minutes = $3, price_cents = $4, is_active = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, o.Name, o.Description, o.DurationMinutes, o.PriceCents, o.IsActive, o.ID).
		Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update service failed: %w", err)
	}
	return nil
}
