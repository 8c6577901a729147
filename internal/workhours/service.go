package workhours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/user"
)

// StaffDirectory resolves employees. Implemented by user.Service.
type StaffDirectory interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type UpsertRequest struct {
	EmployeeID string
	DayOfWeek  int
	StartTime  string
	EndTime    string
	BreakStart *string
	BreakEnd   *string
	IsActive   *bool // defaults to true
}

type Service interface {
	GetForEmployee(ctx context.Context, employeeID string, day time.Weekday) (*Template, error)
	FirstActiveForDay(ctx context.Context, day time.Weekday) (*Template, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Template, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Template, error)
	Delete(ctx context.Context, employeeID string, day int) error
}

type service struct {
	repo  Repository
	staff StaffDirectory
}

func NewService(repo Repository, staff StaffDirectory) Service {
	return &service{repo: repo, staff: staff}
}

// validateTemplate checks clock formats, ordering and break placement.
func validateTemplate(t *Template) error {
	start, err1 := ParseClock(t.StartTime)
	end, err2 := ParseClock(t.EndTime)
	if err1 != nil || err2 != nil {
		return ErrInvalidClock
	}
	if start >= end {
		return ErrInvalidRange
	}

	if (t.BreakStart == nil) != (t.BreakEnd == nil) {
		return ErrInvalidBreak
	}
	if t.BreakStart == nil {
		return nil
	}

	bs, err1 := ParseClock(*t.BreakStart)
	be, err2 := ParseClock(*t.BreakEnd)
	if err1 != nil || err2 != nil {
		return ErrInvalidClock
	}
	if bs >= be || bs < start || be > end {
		return ErrInvalidBreak
	}
	return nil
}

func validDay(day int) bool {
	return day >= int(time.Sunday) && day <= int(time.Saturday)
}

func (s *service) GetForEmployee(ctx context.Context, employeeID string, day time.Weekday) (*Template, error) {
	return s.repo.GetForEmployee(ctx, employeeID, day)
}

func (s *service) FirstActiveForDay(ctx context.Context, day time.Weekday) (*Template, error) {
	return s.repo.FirstActiveForDay(ctx, day)
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]*Template, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *service) Upsert(ctx context.Context, req UpsertRequest) (*Template, error) {
	if !validDay(req.DayOfWeek) {
		return nil, ErrInvalidDay
	}

	t := &Template{
		EmployeeID: req.EmployeeID,
		DayOfWeek:  time.Weekday(req.DayOfWeek),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		BreakStart: req.BreakStart,
		BreakEnd:   req.BreakEnd,
		IsActive:   true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := validateTemplate(t); err != nil {
		return nil, err
	}

	emp, err := s.staff.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotStaff
		}
		return nil, fmt.Errorf("lookup employee failed: %w", err)
	}
	if !emp.IsActive || !emp.IsStaff() {
		return nil, ErrNotStaff
	}

	if err := s.repo.Upsert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, employeeID string, day int) error {
	if !validDay(day) {
		return ErrInvalidDay
	}
	return s.repo.Delete(ctx, employeeID, time.Weekday(day))
}
