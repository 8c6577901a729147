// Package order reads payment orders owned by the payment subsystem.
package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(http.StatusNotFound, "order not found")

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

type Order struct {
	ID         string
	UserID     *string
	Status     Status
	TotalCents int64
}

// Repository is read-only; orders are written by the payment subsystem.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	const query = `
		SELECT id, user_id, status, total_cents
		FROM public.orders
		WHERE id = $1
	`

	var o Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order failed: %w", err)
	}
	return &o, nil
}
