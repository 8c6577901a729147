package workhours

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "availability template not found")
	ErrInvalidDay   = apperror.New(http.StatusBadRequest, "day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidClock = apperror.New(http.StatusBadRequest, "times must use the HH:MM format")
	ErrInvalidRange = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrInvalidBreak = apperror.New(http.StatusBadRequest, "break must have both ends, start before end, and lie within working hours")
	ErrNotStaff     = apperror.New(http.StatusBadRequest, "employee must be an active staff member")
)

const clockLayout = "15:04"

// Template is the recurring working window of one employee on one weekday.
type Template struct {
	ID         string
	EmployeeID string
	DayOfWeek  time.Weekday
	StartTime  string // HH:MM
	EndTime    string // HH:MM
	BreakStart *string
	BreakEnd   *string
	IsActive   bool
}

// DayWindow is a Template resolved onto a concrete calendar date.
type DayWindow struct {
	Start      time.Time
	End        time.Time
	BreakStart time.Time
	BreakEnd   time.Time
	HasBreak   bool
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// On resolves the template onto the calendar day of date, in date's location.
func (t *Template) On(date time.Time) (DayWindow, error) {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	at := func(offset time.Duration) time.Time {
		// Built from wall-clock fields so DST days keep their HH:MM meaning.
		return time.Date(midnight.Year(), midnight.Month(), midnight.Day(),
			int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, midnight.Location())
	}

	start, err := ParseClock(t.StartTime)
	if err != nil {
		return DayWindow{}, err
	}
	end, err := ParseClock(t.EndTime)
	if err != nil {
		return DayWindow{}, err
	}

	w := DayWindow{Start: at(start), End: at(end)}

	if t.BreakStart != nil && t.BreakEnd != nil {
		bs, err := ParseClock(*t.BreakStart)
		if err != nil {
			return DayWindow{}, err
		}
		be, err := ParseClock(*t.BreakEnd)
		if err != nil {
			return DayWindow{}, err
		}
		w.BreakStart, w.BreakEnd, w.HasBreak = at(bs), at(be), true
	}

	return w, nil
}
