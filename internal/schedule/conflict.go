package schedule

import "time"

// Overlaps reports whether the half-open ranges [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching ranges (one ends exactly when the other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FirstConflict returns the earliest-starting active schedule overlapping [start, end),
// ignoring excludeID. It returns nil when the range is free.
func FirstConflict(existing []*Schedule, start, end time.Time, excludeID string) *Schedule {
	var first *Schedule
	for _, s := range existing {
		if !s.Status.IsActive() || (excludeID != "" && s.ID == excludeID) {
			continue
		}
		if !Overlaps(start, end, s.StartAt, s.EndAt) {
			continue
		}
		if first == nil || s.StartAt.Before(first.StartAt) {
			first = s
		}
	}
	return first
}
