package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/service-booking-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id string) (*Schedule, error)
	GetByOrderID(ctx context.Context, orderID string) (*Schedule, error)
	List(ctx context.Context, filter Filter) ([]*Schedule, int, error)

	// ListActiveInRange returns PENDING/CONFIRMED schedules in scope overlapping [from, to).
	ListActiveInRange(ctx context.Context, scope Scope, from, to time.Time) ([]*Schedule, error)

	// FindConflict returns the earliest active schedule in scope overlapping [start, end),
	// ignoring excludeID, or nil when there is none.
	FindConflict(ctx context.Context, scope Scope, start, end time.Time, excludeID string) (*Schedule, error)

	// UpdateStatus moves a schedule from one status to another. It fails with
	// ErrConcurrentUpdate if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status) error

	// Assign sets the employee of an unassigned schedule and moves it from one status to another.
	Assign(ctx context.Context, id, employeeID string, from, to Status) error

	// WithScopeLock runs fn in a transaction that holds an exclusive lock on scope.
	// Check-then-write sequences on the same scope are serialized by it.
	WithScopeLock(ctx context.Context, scope Scope, fn func(tx Repository) error) error
}

var scheduleColumns = []string{
	"s.id", "s.type", "s.status", "s.service_id", "s.service_name", "s.price_cents",
	"s.start_at", "s.end_at", "s.employee_id", "s.user_id",
	"s.guest_name", "s.guest_email", "s.guest_phone", "s.order_id", "s.notes",
	"s.created_by_role", "s.created_at", "s.updated_at",
}

var sortColumns = map[string]string{
	"start_at":   "s.start_at",
	"end_at":     "s.end_at",
	"created_at": "s.created_at",
	"status":     "s.status",
}

const activeOrderIndex = "schedules_active_order_uidx"

type pgxRepository struct {
	pool *pgxpool.Pool
	q    db.Querier
	tx   pgx.Tx // set inside WithScopeLock
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		q:    pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanSchedule(row pgx.Row, extra ...any) (*Schedule, error) {
	var s Schedule
	dest := []any{
		&s.ID, &s.Type, &s.Status, &s.ServiceID, &s.ServiceName, &s.PriceCents,
		&s.StartAt, &s.EndAt, &s.EmployeeID, &s.UserID,
		&s.GuestName, &s.GuestEmail, &s.GuestPhone, &s.OrderID, &s.Notes,
		&s.CreatedByRole, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// isExclusionViolation reports whether err is the overlap constraint firing.
func isExclusionViolation(err error) bool {
	var e *pgconn.PgError
	return errors.As(err, &e) && e.Code == pgerrcode.ExclusionViolation
}

// isActiveOrderViolation reports whether err is a second active booking on one order.
func isActiveOrderViolation(err error) bool {
	var e *pgconn.PgError
	return errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation && e.ConstraintName == activeOrderIndex
}

func (r *pgxRepository) Create(ctx context.Context, s *Schedule) error {
	query, args, err := r.psql.Insert("public.schedules").
		Columns(
			"type", "status", "service_id", "service_name", "price_cents", "start_at", "end_at",
			"employee_id", "user_id", "guest_name", "guest_email", "guest_phone", "order_id", "notes",
			"created_by_role",
		).
		Values(
			s.Type, s.Status, s.ServiceID, s.ServiceName, s.PriceCents, s.StartAt, s.EndAt,
			s.EmployeeID, s.UserID, s.GuestName, s.GuestEmail, s.GuestPhone, s.OrderID, s.Notes,
			s.CreatedByRole,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create schedule query failed: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if isExclusionViolation(err) {
			return ErrTimeConflict
		}
		if isActiveOrderViolation(err) {
			return ErrOrderAlreadyLinked
		}
		return fmt.Errorf("create schedule failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Sqlizer, orderBy ...string) (*Schedule, error) {
	query, args, err := r.psql.Select(scheduleColumns...).
		From("public.schedules s").
		Where(where).
		OrderBy(append(orderBy, "s.created_at DESC")...).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get schedule query failed: %w", err)
	}

	s, err := scanSchedule(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get schedule failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Schedule, error) {
	return r.getOne(ctx, squirrel.Eq{"s.id": id})
}

// GetByOrderID returns the active schedule linked to the order, falling back
// to the most recent one.
func (r *pgxRepository) GetByOrderID(ctx context.Context, orderID string) (*Schedule, error) {
	return r.getOne(ctx, squirrel.Eq{"s.order_id": orderID}, "s.status IN ('PENDING', 'CONFIRMED') DESC")
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Schedule, int, error) {
	query := r.psql.Select(append(scheduleColumns, "count(*) OVER() AS total_count")...).
		From("public.schedules s")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"s.user_id": filter.UserID})
	}
	if filter.EmployeeID != "" {
		query = query.Where(squirrel.Eq{"s.employee_id": filter.EmployeeID})
	}
	if filter.ServiceID != "" {
		query = query.Where(squirrel.Eq{"s.service_id": filter.ServiceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"s.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"s.end_at": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"s.start_at": *filter.To})
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "s.start_at"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "s.id")

	// Pagination
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
		return nil, 0, fmt.Errorf("build list schedules query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list schedules failed: %w", err)
	}
	defer rows.Close()

	var schedules []*Schedule
	var total int

	for rows.Next() {
		s, err := scanSchedule(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan schedule failed: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate schedules failed: %w", err)
	}

	return schedules, total, nil
}

// activeOverlap builds the shared WHERE clause of the overlap queries:
// same scope, active status, and ExistingStart < end AND ExistingEnd > start.
func activeOverlap(scope Scope, start, end time.Time) squirrel.And {
	cond := squirrel.And{
		squirrel.Eq{"s.status": []string{string(StatusPending), string(StatusConfirmed)}},
		squirrel.Lt{"s.start_at": end},
		squirrel.Gt{"s.end_at": start},
	}
	if scope.EmployeeID != "" {
		return append(cond, squirrel.Eq{"s.employee_id": scope.EmployeeID})
	}
	return append(cond, squirrel.Eq{"s.service_id": scope.ServiceID})
}

func (r *pgxRepository) ListActiveInRange(ctx context.Context, scope Scope, from, to time.Time) ([]*Schedule, error) {
	query, args, err := r.psql.Select(scheduleColumns...).
		From("public.schedules s").
		Where(activeOverlap(scope, from, to)).
		OrderBy("s.start_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active schedules query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active schedules failed: %w", err)
	}
	defer rows.Close()

	var out []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active schedules failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) FindConflict(ctx context.Context, scope Scope, start, end time.Time, excludeID string) (*Schedule, error) {
	where := activeOverlap(scope, start, end)
	if excludeID != "" {
		where = append(where, squirrel.NotEq{"s.id": excludeID})
	}

	query, args, err := r.psql.Select(scheduleColumns...).
		From("public.schedules s").
		Where(where).
		OrderBy("s.start_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find conflict query failed: %w", err)
	}

	s, err := scanSchedule(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conflict failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	query, args, err := r.psql.Update("public.schedules").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status query failed: %w", err)
	}

	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update schedule status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (r *pgxRepository) Assign(ctx context.Context, id, employeeID string, from, to Status) error {
	query, args, err := r.psql.Update("public.schedules").
		Set("employee_id", employeeID).
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from, "employee_id": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build assign query failed: %w", err)
	}

	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrTimeConflict
		}
		return fmt.Errorf("assign schedule failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (r *pgxRepository) WithScopeLock(ctx context.Context, scope Scope, fn func(tx Repository) error) error {
	if r.tx != nil {
		if err := db.AdvisoryXactLock(ctx, r.tx, scope.LockKey()); err != nil {
			return err
		}
		return fn(r)
	}

	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.AdvisoryXactLock(ctx, tx, scope.LockKey()); err != nil {
			return err
		}
		return fn(&pgxRepository{pool: r.pool, q: tx, tx: tx, psql: r.psql})
	})
}
