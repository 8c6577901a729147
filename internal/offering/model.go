package offering

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "service not found")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidDuration = apperror.New(http.StatusBadRequest, "duration must be between 5 and 480 minutes")
	ErrInvalidPrice    = apperror.New(http.StatusBadRequest, "price cannot be negative")
)

const (
	DefaultDurationMinutes = 30
	minDurationMinutes     = 5
	maxDurationMinutes     = 480
)

// Offering is a bookable catalog service (e.g. haircut, massage).
type Offering struct {
	ID              string
	Name            string
	Description     *string
	DurationMinutes *int // nil means DefaultDurationMinutes
	PriceCents      int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectiveMinutes returns the configured duration or the default.
func (o *Offering) EffectiveMinutes() int {
	if o.DurationMinutes == nil || *o.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return *o.DurationMinutes
}

// Duration returns the appointment length.
func (o *Offering) Duration() time.Duration {
	return time.Duration(o.EffectiveMinutes()) * time.Minute
}

// Filter defines parameters for listing offerings.
type Filter struct {
	Name      string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
