package schedule

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "schedule not found")
	ErrMissingFields        = apperror.New(http.StatusBadRequest, "service_id, date and time are required")
	ErrGuestEmailRequired   = apperror.New(http.StatusBadRequest, "guest_email is required for guest bookings")
	ErrInvalidEmail         = apperror.New(http.StatusBadRequest, "guest_email is not a valid email address")
	ErrInvalidDate          = apperror.New(http.StatusBadRequest, "date must use the YYYY-MM-DD format")
	ErrDateInPast           = apperror.New(http.StatusBadRequest, "date is in the past")
	ErrInvalidDateTime      = apperror.New(http.StatusBadRequest, "date and time must use the YYYY-MM-DD and HH:MM formats")
	ErrStartNotInFuture     = apperror.New(http.StatusBadRequest, "booking time must be in the future")
	ErrUnknownUser          = apperror.New(http.StatusUnauthorized, "unknown or inactive user")
	ErrEmployeeNotFound     = apperror.New(http.StatusNotFound, "employee not found")
	ErrTimeConflict         = apperror.New(http.StatusConflict, "time slot already booked")
	ErrAlreadyAssigned      = apperror.New(http.StatusBadRequest, "employee already assigned")
	ErrNoStaffAvailable     = apperror.New(http.StatusConflict, "no staff available")
	ErrAlreadyOccurred      = apperror.New(http.StatusBadRequest, "booking has already occurred")
	ErrNotCancellable       = apperror.New(http.StatusBadRequest, "booking cannot be cancelled in its current status")
	ErrInvalidTransition    = apperror.New(http.StatusConflict, "invalid status transition")
	ErrConcurrentUpdate     = apperror.New(http.StatusConflict, "schedule changed concurrently")
	ErrInvalidPaymentAction = apperror.New(http.StatusBadRequest, "action must be CONFIRM or CANCEL")
	ErrMissingReference     = apperror.New(http.StatusBadRequest, "schedule_id or order_id is required")
	ErrNoLinkedOrder        = apperror.New(http.StatusBadRequest, "schedule has no linked order")
	ErrPermissionDenied     = apperror.New(http.StatusForbidden, "permission denied")
	ErrOrderNotOwned        = apperror.New(http.StatusForbidden, "order does not belong to the caller")
	ErrOrderAlreadyLinked   = apperror.New(http.StatusConflict, "order is already linked to an active booking")
)

// MsgNoAvailability is returned with an empty slot list when nobody works that day.
const MsgNoAvailability = "no availability this day"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
)

// Active statuses occupy the calendar.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Type string

const (
	TypeService Type = "SERVICE"
	TypeGeneric Type = "GENERIC"
)

// Schedule is a booked time range, optionally for a catalog service and an employee.
// Rows are never deleted; cancellation is a status.
type Schedule struct {
	ID            string
	Type          Type
	Status        Status
	ServiceID     *string
	ServiceName   string
	PriceCents    int64
	StartAt       time.Time
	EndAt         time.Time
	EmployeeID    *string
	UserID        *string
	GuestName     *string
	GuestEmail    *string
	GuestPhone    *string
	OrderID       *string
	Notes         *string
	CreatedByRole string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Scope selects which bookings compete for the same time: those of one
// employee, or, for unassigned bookings, those of one service.
type Scope struct {
	EmployeeID string
	ServiceID  string
}

func EmployeeScope(id string) Scope { return Scope{EmployeeID: id} }
func ServiceScope(id string) Scope  { return Scope{ServiceID: id} }

// Kind is "employee" or "service".
func (s Scope) Kind() string {
	if s.EmployeeID != "" {
		return "employee"
	}
	return "service"
}

// LockKey identifies the scope for advisory locking.
func (s Scope) LockKey() string {
	if s.EmployeeID != "" {
		return "employee:" + s.EmployeeID
	}
	return "service:" + s.ServiceID
}

type Filter struct {
	UserID     string
	EmployeeID string
	ServiceID  string
	Status     string
	From       *time.Time // schedules ending after this time
	To         *time.Time // schedules starting before this time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Slot is one bookable start time.
type Slot struct {
	Time  string // HH:MM in the calendar location
	Start time.Time
}

type Availability struct {
	ServiceName  string
	DurationMins int
	Slots        []Slot
	Message      string
}
